package search

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONQueryParser decodes stored query text as a JSON-encoded matcher tree.
// It is the default QueryParser wired at startup; a text query language can
// replace it behind the same interface.
type JSONQueryParser struct{}

func NewJSONQueryParser() *JSONQueryParser {
	return &JSONQueryParser{}
}

type jsonNode struct {
	Type      string     `json:"type"`
	Name      string     `json:"name,omitempty"`
	Value     string     `json:"value,omitempty"`
	Bool      bool       `json:"bool,omitempty"`
	When      int64      `json:"when,omitempty"`
	OlderThan string     `json:"older_than,omitempty"`
	Inverse   bool       `json:"inverse,omitempty"`
	Children  []jsonNode `json:"children,omitempty"`
}

func (p *JSONQueryParser) ParseSearchQuery(text string) (ParsedQuery, error) {
	var root jsonNode
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return ParsedQuery{}, fmt.Errorf("decode query: %w", err)
	}
	m, err := decodeNode(root)
	if err != nil {
		return ParsedQuery{}, err
	}
	return ParsedQuery{Matcher: m, Result: ParseFull}, nil
}

func decodeNode(n jsonNode) (Matcher, error) {
	switch n.Type {
	case "tag":
		return TagName{Name: n.Name, Inverse: n.Inverse}, nil
	case "tagged":
		return Tagged{Tagged: n.Bool}, nil
	case "list":
		return ListName{Name: n.Name, Inverse: n.Inverse}, nil
	case "inList":
		return InList{In: n.Bool}, nil
	case "feed":
		return FeedName{Name: n.Name, Inverse: n.Inverse}, nil
	case "archived":
		return Archived{Archived: n.Bool}, nil
	case "favourited":
		return Favourited{Favourited: n.Bool}, nil
	case "url":
		return URL{Value: n.Value, Inverse: n.Inverse}, nil
	case "title":
		return Title{Value: n.Value, Inverse: n.Inverse}, nil
	case "dateAfter":
		return DateAfter{When: time.Unix(n.When, 0), Inverse: n.Inverse}, nil
	case "dateBefore":
		return DateBefore{When: time.Unix(n.When, 0), Inverse: n.Inverse}, nil
	case "age":
		d, err := time.ParseDuration(n.OlderThan)
		if err != nil {
			return nil, fmt.Errorf("decode age duration: %w", err)
		}
		return Age{OlderThan: d, Inverse: n.Inverse}, nil
	case "type":
		return Type{Value: n.Value, Inverse: n.Inverse}, nil
	case "broken":
		return BrokenLinks{Broken: n.Bool}, nil
	case "source":
		return Source{Value: n.Value, Inverse: n.Inverse}, nil
	case "and", "or":
		children := make([]Matcher, 0, len(n.Children))
		for _, child := range n.Children {
			m, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			children = append(children, m)
		}
		if n.Type == "and" {
			return And{Children: children}, nil
		}
		return Or{Children: children}, nil
	}
	return nil, fmt.Errorf("unknown query node type: %q", n.Type)
}
