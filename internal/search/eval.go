package search

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

// MaxVisitedLists bounds smart-list recursion regardless of true cycles;
// adversarially deep chains terminate once this many distinct lists have been
// entered on one evaluation path.
const MaxVisitedLists = 32

// inListSentinel marks an in-flight "in any list" resolution in the ancestry.
// It is not a legal list name, so it can never collide with a real one.
const inListSentinel = "\x00in-list"

type LeafKind int

const (
	LeafTag LeafKind = iota
	LeafTagged
	LeafFeed
	LeafArchived
	LeafFavourited
	LeafURL
	LeafTitle
	LeafDateAfter
	LeafDateBefore
	LeafAge
	LeafType
	LeafBroken
	LeafSource
)

// LeafFilter is the storage-layer compilation target for every non-list leaf.
// The store owns the full leaf semantics, including the inverse null-title
// and null-url behaviour, so that each leaf is a single scoped query.
type LeafFilter struct {
	Kind      LeafKind
	Text      string
	Bool      bool
	When      time.Time
	OlderThan time.Duration
	Inverse   bool
}

type ListRef struct {
	ID    string
	Name  string
	Type  string
	Query string
}

// Store is the storage collaborator the evaluator runs against. Every method
// is scoped to a single user's bookmarks.
type Store interface {
	AllBookmarkIDs(ctx context.Context, userID string) ([]string, error)
	FilterBookmarkIDs(ctx context.Context, userID string, f LeafFilter) ([]string, error)
	ListByName(ctx context.Context, userID, name string) (*ListRef, error)
	ManualListBookmarkIDs(ctx context.Context, userID, listID string) ([]string, error)
	BookmarkIDsInAnyManualList(ctx context.Context, userID string) ([]string, error)
	SmartLists(ctx context.Context, userID string) ([]ListRef, error)
}

type Evaluator struct {
	store  Store
	parser QueryParser
}

func NewEvaluator(store Store, parser QueryParser) *Evaluator {
	return &Evaluator{store: store, parser: parser}
}

// Evaluate resolves the matcher to the sorted set of the user's bookmark ids
// satisfying it. Each top-level call starts with a fresh ancestry, so repeated
// evaluation of the same tree is deterministic and side-effect free.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, m Matcher) ([]string, error) {
	set, err := e.eval(ctx, userID, m, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// EvaluateQuery parses and evaluates stored smart-list query text.
func (e *Evaluator) EvaluateQuery(ctx context.Context, userID, query string) ([]string, error) {
	parsed, err := e.parser.ParseSearchQuery(query)
	if err != nil {
		return nil, appErr.ErrInvalid
	}
	return e.Evaluate(ctx, userID, parsed.Matcher)
}

// EvaluateNamedQuery evaluates stored smart-list query text on behalf of the
// named list itself. The ancestry is seeded with the list's own name, so a
// query that references the list directly or through a cycle resolves empty
// instead of recursing.
func (e *Evaluator) EvaluateNamedQuery(ctx context.Context, userID, listName, query string) ([]string, error) {
	parsed, err := e.parser.ParseSearchQuery(query)
	if err != nil {
		return nil, appErr.ErrInvalid
	}
	set, err := e.evalNamed(ctx, userID, listName, parsed.Matcher)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// evalNamed is like Evaluate but seeds the ancestry, used when a smart list's
// own evaluation delegates here from the list layer.
func (e *Evaluator) evalNamed(ctx context.Context, userID, listName string, m Matcher) (map[string]struct{}, error) {
	return e.eval(ctx, userID, m, []string{listName})
}

func (e *Evaluator) eval(ctx context.Context, userID string, m Matcher, visited []string) (map[string]struct{}, error) {
	switch n := m.(type) {
	case TagName:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafTag, Text: n.Name, Inverse: n.Inverse})
	case Tagged:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafTagged, Bool: n.Tagged})
	case FeedName:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafFeed, Text: n.Name, Inverse: n.Inverse})
	case Archived:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafArchived, Bool: n.Archived})
	case Favourited:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafFavourited, Bool: n.Favourited})
	case URL:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafURL, Text: n.Value, Inverse: n.Inverse})
	case Title:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafTitle, Text: n.Value, Inverse: n.Inverse})
	case DateAfter:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafDateAfter, When: n.When, Inverse: n.Inverse})
	case DateBefore:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafDateBefore, When: n.When, Inverse: n.Inverse})
	case Age:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafAge, OlderThan: n.OlderThan, Inverse: n.Inverse})
	case Type:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafType, Text: n.Value, Inverse: n.Inverse})
	case BrokenLinks:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafBroken, Bool: n.Broken})
	case Source:
		return e.leaf(ctx, userID, LeafFilter{Kind: LeafSource, Text: n.Value, Inverse: n.Inverse})
	case ListName:
		ids, err := e.listMembers(ctx, userID, n.Name, visited)
		if err != nil {
			return nil, err
		}
		if n.Inverse {
			return e.complement(ctx, userID, ids)
		}
		return ids, nil
	case InList:
		ids, err := e.anyListMembers(ctx, userID, visited)
		if err != nil {
			return nil, err
		}
		if !n.In {
			return e.complement(ctx, userID, ids)
		}
		return ids, nil
	case And:
		results, err := e.evalChildren(ctx, userID, n.Children, visited)
		if err != nil {
			return nil, err
		}
		return intersect(results), nil
	case Or:
		results, err := e.evalChildren(ctx, userID, n.Children, visited)
		if err != nil {
			return nil, err
		}
		return union(results), nil
	}
	return nil, appErr.ErrInvalid
}

func (e *Evaluator) leaf(ctx context.Context, userID string, f LeafFilter) (map[string]struct{}, error) {
	ids, err := e.store.FilterBookmarkIDs(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return toSet(ids), nil
}

// listMembers resolves one named list to its member set. Manual lists read
// membership rows; smart lists recurse through the parser with this list's
// name appended to a cloned ancestry. A name reappearing in its own ancestry,
// or an ancestry at the hard cap, short-circuits to empty instead of
// recursing. A name that resolves to no list is the empty set too; the
// caller's inverse handling turns that into "everything".
func (e *Evaluator) listMembers(ctx context.Context, userID, name string, visited []string) (map[string]struct{}, error) {
	if len(visited) >= MaxVisitedLists || containsName(visited, name) {
		return map[string]struct{}{}, nil
	}
	ref, err := e.store.ListByName(ctx, userID, name)
	if err != nil {
		if appErr.IsNotFound(err) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	if ref.Type != "smart" {
		ids, err := e.store.ManualListBookmarkIDs(ctx, userID, ref.ID)
		if err != nil {
			return nil, err
		}
		return toSet(ids), nil
	}
	parsed, err := e.parser.ParseSearchQuery(ref.Query)
	if err != nil {
		return map[string]struct{}{}, nil
	}
	return e.eval(ctx, userID, parsed.Matcher, appendVisited(visited, name))
}

// anyListMembers implements the "in any list" predicate: the union of all
// manual memberships with every smart list's evaluation. The sentinel keeps a
// smart list that itself asks "am I in any list" from re-entering this path.
func (e *Evaluator) anyListMembers(ctx context.Context, userID string, visited []string) (map[string]struct{}, error) {
	manual, err := e.store.BookmarkIDsInAnyManualList(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := toSet(manual)
	if len(visited) >= MaxVisitedLists || containsName(visited, inListSentinel) {
		return result, nil
	}
	smarts, err := e.store.SmartLists(ctx, userID)
	if err != nil {
		return nil, err
	}
	base := appendVisited(visited, inListSentinel)
	for _, ref := range smarts {
		if containsName(base, ref.Name) || len(base) >= MaxVisitedLists {
			continue
		}
		parsed, err := e.parser.ParseSearchQuery(ref.Query)
		if err != nil {
			continue
		}
		ids, err := e.eval(ctx, userID, parsed.Matcher, appendVisited(base, ref.Name))
		if err != nil {
			return nil, err
		}
		for id := range ids {
			result[id] = struct{}{}
		}
	}
	return result, nil
}

// evalChildren fans sibling branches out concurrently. Each branch receives
// its own cloned ancestry, so siblings never observe each other's state, and
// results are merged only after every branch has completed.
func (e *Evaluator) evalChildren(ctx context.Context, userID string, children []Matcher, visited []string) ([]map[string]struct{}, error) {
	results := make([]map[string]struct{}, len(children))
	g, gctx := errgroup.WithContext(ctx)
	for i, child := range children {
		branch := appendVisited(visited)
		g.Go(func() error {
			set, err := e.eval(gctx, userID, child, branch)
			if err != nil {
				return err
			}
			results[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Evaluator) complement(ctx context.Context, userID string, exclude map[string]struct{}) (map[string]struct{}, error) {
	all, err := e.store.AllBookmarkIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make(map[string]struct{}, len(all))
	for _, id := range all {
		if _, ok := exclude[id]; !ok {
			result[id] = struct{}{}
		}
	}
	return result, nil
}

// appendVisited clones before extending so no two branches share a backing
// array.
func appendVisited(visited []string, names ...string) []string {
	next := make([]string, 0, len(visited)+len(names))
	next = append(next, visited...)
	return append(next, names...)
}

func containsName(visited []string, name string) bool {
	for _, v := range visited {
		if v == name {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func intersect(sets []map[string]struct{}) map[string]struct{} {
	if len(sets) == 0 {
		return map[string]struct{}{}
	}
	result := make(map[string]struct{})
	smallest := sets[0]
	for _, s := range sets[1:] {
		if len(s) < len(smallest) {
			smallest = s
		}
	}
	for id := range smallest {
		inAll := true
		for _, s := range sets {
			if _, ok := s[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			result[id] = struct{}{}
		}
	}
	return result
}

func union(sets []map[string]struct{}) map[string]struct{} {
	result := make(map[string]struct{})
	for _, s := range sets {
		for id := range s {
			result[id] = struct{}{}
		}
	}
	return result
}
