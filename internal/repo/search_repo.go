package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
	"github.com/shelfmark/shelfmark/internal/search"
)

// SearchRepo is the storage collaborator behind the matcher evaluator. Each
// leaf predicate compiles to one query scoped to the caller's bookmarks.
type SearchRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSearchRepo(db *sql.DB) *SearchRepo {
	return &SearchRepo{db: db, now: time.Now}
}

var _ search.Store = (*SearchRepo)(nil)

func (r *SearchRepo) queryIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SearchRepo) AllBookmarkIDs(ctx context.Context, userID string) ([]string, error) {
	return r.queryIDs(ctx, `SELECT id FROM bookmarks WHERE user_id = $1`, userID)
}

func (r *SearchRepo) FilterBookmarkIDs(ctx context.Context, userID string, f search.LeafFilter) ([]string, error) {
	switch f.Kind {
	case search.LeafTag:
		op := "IN"
		if f.Inverse {
			op = "NOT IN"
		}
		query := fmt.Sprintf(`
			SELECT b.id FROM bookmarks b
			WHERE b.user_id = $1 AND b.id %s (
				SELECT bt.bookmark_id FROM bookmark_tags bt
				JOIN tags t ON t.id = bt.tag_id
				WHERE bt.user_id = $1 AND t.name = $2
			)`, op)
		return r.queryIDs(ctx, query, userID, f.Text)
	case search.LeafTagged:
		op := "IN"
		if !f.Bool {
			op = "NOT IN"
		}
		query := fmt.Sprintf(`
			SELECT b.id FROM bookmarks b
			WHERE b.user_id = $1 AND b.id %s (
				SELECT bt.bookmark_id FROM bookmark_tags bt WHERE bt.user_id = $1
			)`, op)
		return r.queryIDs(ctx, query, userID)
	case search.LeafFeed:
		op := "IN"
		if f.Inverse {
			op = "NOT IN"
		}
		query := fmt.Sprintf(`
			SELECT b.id FROM bookmarks b
			WHERE b.user_id = $1 AND b.id %s (
				SELECT b2.id FROM bookmarks b2
				JOIN feeds f ON f.id = b2.feed_id
				WHERE b2.user_id = $1 AND f.name = $2
			)`, op)
		return r.queryIDs(ctx, query, userID, f.Text)
	case search.LeafArchived:
		return r.queryIDs(ctx,
			`SELECT id FROM bookmarks WHERE user_id = $1 AND archived = $2`,
			userID, boolToInt(f.Bool))
	case search.LeafFavourited:
		return r.queryIDs(ctx,
			`SELECT id FROM bookmarks WHERE user_id = $1 AND favourited = $2`,
			userID, boolToInt(f.Bool))
	case search.LeafBroken:
		return r.queryIDs(ctx,
			`SELECT id FROM bookmarks WHERE user_id = $1 AND broken_link = $2`,
			userID, boolToInt(f.Bool))
	case search.LeafURL:
		if f.Inverse {
			return r.queryIDs(ctx,
				`SELECT id FROM bookmarks WHERE user_id = $1 AND url NOT LIKE $2`,
				userID, "%"+f.Text+"%")
		}
		return r.queryIDs(ctx,
			`SELECT id FROM bookmarks WHERE user_id = $1 AND url LIKE $2`,
			userID, "%"+f.Text+"%")
	case search.LeafTitle:
		// Inversion is not structural NOT here: a bookmark with no title at
		// all satisfies the inverse match. Only the primary title column
		// participates; link metadata titles live elsewhere.
		if f.Inverse {
			return r.queryIDs(ctx,
				`SELECT id FROM bookmarks WHERE user_id = $1 AND (title IS NULL OR title NOT ILIKE $2)`,
				userID, "%"+f.Text+"%")
		}
		return r.queryIDs(ctx,
			`SELECT id FROM bookmarks WHERE user_id = $1 AND title ILIKE $2`,
			userID, "%"+f.Text+"%")
	case search.LeafDateAfter:
		op := ">="
		if f.Inverse {
			op = "<"
		}
		return r.queryIDs(ctx,
			fmt.Sprintf(`SELECT id FROM bookmarks WHERE user_id = $1 AND ctime %s $2`, op),
			userID, f.When.Unix())
	case search.LeafDateBefore:
		op := "<="
		if f.Inverse {
			op = ">"
		}
		return r.queryIDs(ctx,
			fmt.Sprintf(`SELECT id FROM bookmarks WHERE user_id = $1 AND ctime %s $2`, op),
			userID, f.When.Unix())
	case search.LeafAge:
		cutoff := r.now().Add(-f.OlderThan).Unix()
		op := "<="
		if f.Inverse {
			op = ">"
		}
		return r.queryIDs(ctx,
			fmt.Sprintf(`SELECT id FROM bookmarks WHERE user_id = $1 AND ctime %s $2`, op),
			userID, cutoff)
	case search.LeafType:
		op := "="
		if f.Inverse {
			op = "<>"
		}
		return r.queryIDs(ctx,
			fmt.Sprintf(`SELECT id FROM bookmarks WHERE user_id = $1 AND type %s $2`, op),
			userID, f.Text)
	case search.LeafSource:
		op := "="
		if f.Inverse {
			op = "<>"
		}
		return r.queryIDs(ctx,
			fmt.Sprintf(`SELECT id FROM bookmarks WHERE user_id = $1 AND source %s $2`, op),
			userID, f.Text)
	}
	return nil, appErr.ErrInvalid
}

func (r *SearchRepo) ListByName(ctx context.Context, userID, name string) (*search.ListRef, error) {
	const query = `
		SELECT id, name, type, query FROM lists
		WHERE user_id = $1 AND name = $2
		ORDER BY ctime ASC
		LIMIT 1
	`
	var ref search.ListRef
	if err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&ref.ID, &ref.Name, &ref.Type, &ref.Query); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *SearchRepo) ManualListBookmarkIDs(ctx context.Context, userID, listID string) ([]string, error) {
	const query = `
		SELECT lb.bookmark_id FROM list_bookmarks lb
		JOIN bookmarks b ON b.id = lb.bookmark_id
		WHERE lb.list_id = $1 AND b.user_id = $2
	`
	return r.queryIDs(ctx, query, listID, userID)
}

func (r *SearchRepo) BookmarkIDsInAnyManualList(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT DISTINCT lb.bookmark_id FROM list_bookmarks lb
		JOIN lists l ON l.id = lb.list_id
		JOIN bookmarks b ON b.id = lb.bookmark_id
		WHERE l.type = $1 AND b.user_id = $2
	`
	return r.queryIDs(ctx, query, model.ListTypeManual, userID)
}

func (r *SearchRepo) SmartLists(ctx context.Context, userID string) ([]search.ListRef, error) {
	const query = `
		SELECT id, name, type, query FROM lists
		WHERE user_id = $1 AND type = $2
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, model.ListTypeSmart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	refs := make([]search.ListRef, 0)
	for rows.Next() {
		var ref search.ListRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Type, &ref.Query); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
