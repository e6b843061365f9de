// Package xmltokenizer defines the external XML-tokenizing capability the
// heuristic pipeline and schema coercer depend on: parse a well-ish-formed
// fragment against a schema into a tagged tree, extract raw inner content
// without re-tokenizing, and find the byte range of a balanced top-level
// element. The one concrete implementation is built on encoding/xml.
package xmltokenizer

// Tree is the result of parsing an XML fragment.
type Tree struct {
	Root *Node
}

// Node is one element in a parsed tree. Attrs is nil for elements without
// attributes; Text carries the concatenated character data when a node is a
// leaf (has no element Children).
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	Text     string
}

// Child returns the first direct child named name, if any.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Tokenizer is the capability contract this domain needs from an XML
// tokenizer: tolerant of LLM-generated fragments that are not full
// documents (no single-root requirement).
type Tokenizer interface {
	// Parse parses a well-ish-formed XML fragment against schema and returns
	// a tagged tree, or an error if the fragment cannot be tokenized at all.
	// Multiple sibling top-level elements are wrapped under a synthetic root.
	Parse(xml string, schema map[string]interface{}) (*Tree, error)

	// RawInner returns the substring between the first tag's '>' and the
	// matching closing tag's '<', without re-tokenizing that substring. ok is
	// false if xml does not begin with a start tag or never balances.
	RawInner(xml string) (string, bool)

	// TopLevelRange finds the [start,end) byte range of the first
	// well-balanced element named name in xml, honoring nesting depth of
	// that same name. ok is false if no balanced occurrence exists.
	TopLevelRange(xml string, name string) (start, end int, ok bool)
}
