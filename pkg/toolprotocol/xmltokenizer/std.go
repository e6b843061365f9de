package xmltokenizer

import (
	"encoding/xml"
	"io"
	"strings"
)

// StdTokenizer implements Tokenizer on top of encoding/xml's Decoder, used as
// a stream tokenizer rather than a document parser: it never requires a
// single root element, which matters once the heuristic pipeline has already
// balanced tags but a fragment may still contain several top-level siblings.
type StdTokenizer struct{}

// New returns the standard-library-backed Tokenizer.
func New() *StdTokenizer {
	return &StdTokenizer{}
}

func newDecoder(src string) *xml.Decoder {
	dec := xml.NewDecoder(strings.NewReader(src))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return dec
}

// Parse implements Tokenizer.
func (t *StdTokenizer) Parse(src string, schema map[string]interface{}) (*Tree, error) {
	dec := newDecoder(src)

	root := &Node{Name: "#root"}
	stack := []*Node{root}
	var textBuf strings.Builder

	flushText := func() {
		if textBuf.Len() == 0 {
			return
		}
		stack[len(stack)-1].Text += textBuf.String()
		textBuf.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			flushText()
			node := &Node{Name: el.Name.Local}
			if len(el.Attr) > 0 {
				node.Attrs = make(map[string]string, len(el.Attr))
				for _, a := range el.Attr {
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
			stack = append(stack, node)
		case xml.EndElement:
			flushText()
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			textBuf.Write(el)
		}
	}
	flushText()

	return &Tree{Root: root}, nil
}

// RawInner implements Tokenizer.
func (t *StdTokenizer) RawInner(src string) (string, bool) {
	dec := newDecoder(src)

	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return "", false
	}
	name := start.Name.Local
	innerStart := int(dec.InputOffset())
	depth := 1

	for {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == name {
				depth++
			}
		case xml.EndElement:
			if el.Name.Local == name {
				depth--
				if depth == 0 {
					return src[innerStart:offset], true
				}
			}
		}
	}
}

// TopLevelRange implements Tokenizer.
func (t *StdTokenizer) TopLevelRange(src string, name string) (int, int, bool) {
	dec := newDecoder(src)
	depth := 0
	start := -1

	for {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, false
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == name {
				if depth == 0 {
					start = offset
				}
				depth++
			}
		case xml.EndElement:
			if el.Name.Local == name {
				depth--
				if depth == 0 && start >= 0 {
					return start, int(dec.InputOffset()), true
				}
			}
		}
	}
}
