// Package search evaluates parsed smart-list queries into bookmark id sets.
// The query text itself is parsed by an external collaborator; this package
// consumes the resulting predicate tree.
package search

import "time"

// Matcher is one node of the parsed predicate tree. The concrete node types
// below form a closed set; the evaluator switches over them exhaustively.
type Matcher interface {
	matcherNode()
}

// Text-valued leaves carry an Inverse flag because their negation is not the
// structural NOT of the match: an inverse title match must also select
// bookmarks that have no title at all.
type (
	TagName struct {
		Name    string
		Inverse bool
	}

	Tagged struct {
		Tagged bool
	}

	ListName struct {
		Name    string
		Inverse bool
	}

	InList struct {
		In bool
	}

	FeedName struct {
		Name    string
		Inverse bool
	}

	Archived struct {
		Archived bool
	}

	Favourited struct {
		Favourited bool
	}

	URL struct {
		Value   string
		Inverse bool
	}

	Title struct {
		Value   string
		Inverse bool
	}

	DateAfter struct {
		When    time.Time
		Inverse bool
	}

	DateBefore struct {
		When    time.Time
		Inverse bool
	}

	// Age matches bookmarks older than the given duration at evaluation time.
	Age struct {
		OlderThan time.Duration
		Inverse   bool
	}

	Type struct {
		Value   string
		Inverse bool
	}

	BrokenLinks struct {
		Broken bool
	}

	Source struct {
		Value   string
		Inverse bool
	}

	And struct {
		Children []Matcher
	}

	Or struct {
		Children []Matcher
	}
)

func (TagName) matcherNode()     {}
func (Tagged) matcherNode()      {}
func (ListName) matcherNode()    {}
func (InList) matcherNode()      {}
func (FeedName) matcherNode()    {}
func (Archived) matcherNode()    {}
func (Favourited) matcherNode()  {}
func (URL) matcherNode()         {}
func (Title) matcherNode()       {}
func (DateAfter) matcherNode()   {}
func (DateBefore) matcherNode()  {}
func (Age) matcherNode()         {}
func (Type) matcherNode()        {}
func (BrokenLinks) matcherNode() {}
func (Source) matcherNode()      {}
func (And) matcherNode()         {}
func (Or) matcherNode()          {}

type ParseResult string

const (
	ParseFull    ParseResult = "full"
	ParsePartial ParseResult = "partial"
)

type ParsedQuery struct {
	Matcher Matcher
	Result  ParseResult
}

// QueryParser turns stored query text into a matcher tree. The parser is an
// external collaborator; smart-list evaluation is its only consumer.
type QueryParser interface {
	ParseSearchQuery(text string) (ParsedQuery, error)
}
