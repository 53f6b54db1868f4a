package routing

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// Category is a recognized routing outcome.
type Category string

// Classifier maps a decision value to a category.
// It reports false when the value is not recognized.
type Classifier func(value any) (Category, bool)

// Node is a routing (splice) node.
type Node struct {
	chain.Base

	self     chain.Link
	classify Classifier
	branches map[Category]chain.Link
	record   bool

	// continuation is what followed the node before its first splice.
	// Re-entries splice in front of it again instead of in front of the
	// previously chosen branch.
	continuation chain.Link
	spliced      bool
	choice       Category
}

// Option configures a routing node.
type Option func(*Node)

// Branch registers head as the first node of the branch taken for category.
// head must belong to the graph the routing node is added to.
func Branch(category Category, head chain.Link) Option {
	return func(n *Node) {
		n.branches[category] = head
	}
}

// WithClassifier replaces the default suffix classifier.
func WithClassifier(c Classifier) Option {
	return func(n *Node) {
		n.classify = c
	}
}

// WithSuffixes classifies values by suffix using an explicit table,
// e.g. {".md": "text", ".txt": "text"}.
func WithSuffixes(table map[string]Category) Option {
	return func(n *Node) {
		n.classify = SuffixClassifier(table)
	}
}

// WithResult makes the node return a result recording the chosen category.
// By default the choice is only available through Choice, so that branch
// nodes still see the routed value as the last result.
func WithResult() Option {
	return func(n *Node) {
		n.record = true
	}
}

// New creates a routing node. Without a classifier option, a value is
// classified by its extension or tag matching a branch category
// ("a.csv" → "csv", "csv" → "csv").
func New(id string, opts ...Option) *Node {
	n := &Node{
		Base:     chain.Base{NodeID: id},
		branches: make(map[Category]chain.Link),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.classify == nil {
		n.classify = n.categoryClassifier
	}
	return n
}

// Attach implements chain.Attacher.
func (n *Node) Attach(self chain.Link) {
	n.self = self
}

// Configure implements chain.Configurable.
// Supported settings: "result" (bool), "suffixes" (map of suffix to category).
func (n *Node) Configure(settings map[string]any) error {
	var s struct {
		Result   *bool             `mapstructure:"result"`
		Suffixes map[string]string `mapstructure:"suffixes"`
	}
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	if s.Result != nil {
		n.record = *s.Result
	}
	if len(s.Suffixes) > 0 {
		table := make(map[string]Category, len(s.Suffixes))
		for suffix, category := range s.Suffixes {
			table[suffix] = Category(category)
		}
		n.classify = SuffixClassifier(table)
	}
	return nil
}

// Choice returns the category selected by the last execution.
func (n *Node) Choice() Category {
	return n.choice
}

// Continuation returns the node that follows the branch region.
func (n *Node) Continuation() chain.Link {
	if n.spliced {
		return n.continuation
	}
	return n.self.Next()
}

// Branches returns a copy of the category table.
func (n *Node) Branches() map[Category]chain.Link {
	return maps.Clone(n.branches)
}

// Run classifies the last recorded result and splices the matching branch
// between this node and its continuation.
func (n *Node) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	if n.self.IsZero() {
		return nil, fmt.Errorf("routing node '%s' is not part of a chain", n.NodeID)
	}

	last, ok := rc.Last()
	if !ok {
		return nil, &domain.ClassificationError{NodeID: n.NodeID}
	}

	category, ok := n.classify(last.Value)
	if !ok {
		return nil, &domain.ClassificationError{NodeID: n.NodeID, Input: last.Value}
	}

	head, ok := n.branches[category]
	if !ok || head.IsZero() {
		return nil, &domain.ClassificationError{NodeID: n.NodeID, Input: last.Value}
	}
	if head.Graph() != n.self.Graph() {
		return nil, fmt.Errorf("routing node '%s': branch '%s' belongs to another chain", n.NodeID, category)
	}

	n.splice(head)
	n.choice = category

	if !n.record {
		return nil, nil
	}
	return n.Result(string(category)), nil
}

func (n *Node) splice(head chain.Link) {
	if !n.spliced {
		n.continuation = n.self.Next()
		n.spliced = true
	}

	n.self.SetNext(head)

	// Walk to the branch tail. A branch already re-joined on a previous
	// visit ends at the continuation itself.
	tail := head
	for {
		next := tail.Next()
		if next.IsZero() || next.Handle() == n.continuation.Handle() {
			break
		}
		tail = next
	}
	tail.SetNext(n.continuation)
}

func (n *Node) categoryClassifier(value any) (Category, bool) {
	s, ok := decisionString(value)
	if !ok {
		return "", false
	}
	var best Category
	found := false
	for category := range n.branches {
		c := strings.ToLower(string(category))
		if (s == c || strings.HasSuffix(s, "."+c)) && len(category) >= len(best) {
			best, found = category, true
		}
	}
	return best, found
}

// SuffixClassifier classifies string values by the longest matching suffix
// of table. Matching is case-insensitive.
func SuffixClassifier(table map[string]Category) Classifier {
	return func(value any) (Category, bool) {
		s, ok := decisionString(value)
		if !ok {
			return "", false
		}
		best, found := "", false
		var category Category
		for suffix, c := range table {
			suffix = strings.ToLower(suffix)
			if strings.HasSuffix(s, suffix) && len(suffix) > len(best) {
				best, category, found = suffix, c, true
			}
		}
		return category, found
	}
}

func decisionString(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s != ""
}
