package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/shelfmark/shelfmark/internal/pkg/dbutil"
)

type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Ctime  int64  `json:"ctime"`
}

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

// Ensure returns the id of the user's tag with the given name, creating it
// when absent. The insert absorbs the unique-key race and re-reads.
func (r *TagRepo) Ensure(ctx context.Context, userID, name, newID string, now int64) (string, error) {
	const insert = `
		INSERT INTO tags (id, user_id, name, ctime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, newID, userID, name, now); err != nil {
		return "", err
	}
	const query = `SELECT id FROM tags WHERE user_id = $1 AND name = $2`
	var id string
	if err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *TagRepo) ListByUser(ctx context.Context, userID string) ([]Tag, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "name asc"}
	sqlStr, args, err := builder.BuildSelect("tags", where, []string{"id", "user_id", "name", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := make([]Tag, 0)
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Ctime); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *TagRepo) Attach(ctx context.Context, userID, bookmarkID, tagID string) error {
	const query = `
		INSERT INTO bookmark_tags (user_id, bookmark_id, tag_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (bookmark_id, tag_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, userID, bookmarkID, tagID)
	return err
}

func (r *TagRepo) Detach(ctx context.Context, userID, bookmarkID, tagID string) error {
	where := map[string]interface{}{"user_id": userID, "bookmark_id": bookmarkID, "tag_id": tagID}
	sqlStr, args, err := builder.BuildDelete("bookmark_tags", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TagRepo) TagNamesForBookmarks(ctx context.Context, userID string, bookmarkIDs []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(bookmarkIDs) == 0 {
		return result, nil
	}
	sqlStr, args, err := builder.BuildSelect("bookmark_tags",
		map[string]interface{}{"user_id": userID, "bookmark_id in": bookmarkIDs},
		[]string{"bookmark_id", "tag_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tagIDs := make(map[string][]string)
	idSet := make(map[string]struct{})
	for rows.Next() {
		var bookmarkID, tagID string
		if err := rows.Scan(&bookmarkID, &tagID); err != nil {
			return nil, err
		}
		tagIDs[bookmarkID] = append(tagIDs[bookmarkID], tagID)
		idSet[tagID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(idSet) == 0 {
		return result, nil
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sqlStr, args, err = builder.BuildSelect("tags",
		map[string]interface{}{"user_id": userID, "id in": ids},
		[]string{"id", "name"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	nameRows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer nameRows.Close()
	names := make(map[string]string)
	for nameRows.Next() {
		var id, name string
		if err := nameRows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	if err := nameRows.Err(); err != nil {
		return nil, err
	}
	for bookmarkID, tids := range tagIDs {
		for _, tid := range tids {
			if name, ok := names[tid]; ok {
				result[bookmarkID] = append(result[bookmarkID], name)
			}
		}
	}
	return result, nil
}
