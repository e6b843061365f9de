package xmltokenizer

import "testing"

func TestStdTokenizer_Parse(t *testing.T) {
	tok := New()
	tree, err := tok.Parse("<location>Seoul</location>", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Root.Children) != 1 {
		t.Fatalf("expected one top-level child, got %d", len(tree.Root.Children))
	}
	loc := tree.Root.Children[0]
	if loc.Name != "location" || loc.Text != "Seoul" {
		t.Errorf("got name=%q text=%q", loc.Name, loc.Text)
	}
}

func TestStdTokenizer_Parse_Nested(t *testing.T) {
	tok := New()
	tree, err := tok.Parse(`<data><item>1</item><item>2</item></data>`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, ok := tree.Root.Child("data")
	if !ok {
		t.Fatal("expected a data child")
	}
	if len(data.Children) != 2 {
		t.Fatalf("expected 2 item children, got %d", len(data.Children))
	}
	if data.Children[0].Text != "1" || data.Children[1].Text != "2" {
		t.Errorf("unexpected item text: %+v", data.Children)
	}
}

func TestStdTokenizer_Parse_MultipleSiblingsNoRootRequired(t *testing.T) {
	tok := New()
	tree, err := tok.Parse(`<a>1</a><b>2</b>`, nil)
	if err != nil {
		t.Fatalf("unexpected error for multiple top-level elements: %v", err)
	}
	if len(tree.Root.Children) != 2 {
		t.Fatalf("expected 2 top-level children, got %d", len(tree.Root.Children))
	}
}

func TestStdTokenizer_RawInner(t *testing.T) {
	tok := New()
	inner, ok := tok.RawInner("<content><!DOCTYPE html><html>hi</html></content>")
	if !ok {
		t.Fatal("expected RawInner to succeed")
	}
	if inner != "<!DOCTYPE html><html>hi</html>" {
		t.Errorf("got %q", inner)
	}
}

func TestStdTokenizer_RawInner_NotAStartTag(t *testing.T) {
	tok := New()
	if _, ok := tok.RawInner("plain text"); ok {
		t.Fatal("expected ok=false for non-tag input")
	}
}

func TestStdTokenizer_TopLevelRange(t *testing.T) {
	tok := New()
	src := "prefix <get_weather><location>Seoul</location></get_weather> suffix"
	start, end, ok := tok.TopLevelRange(src, "get_weather")
	if !ok {
		t.Fatal("expected a balanced range")
	}
	if src[start:end] != "<get_weather><location>Seoul</location></get_weather>" {
		t.Errorf("got %q", src[start:end])
	}
}

func TestStdTokenizer_TopLevelRange_Nested(t *testing.T) {
	tok := New()
	src := "<outer><outer>deep</outer></outer>"
	start, end, ok := tok.TopLevelRange(src, "outer")
	if !ok {
		t.Fatal("expected a balanced range")
	}
	if src[start:end] != src {
		t.Errorf("expected full string for nested same-name balance, got %q", src[start:end])
	}
}

func TestStdTokenizer_TopLevelRange_NotFound(t *testing.T) {
	tok := New()
	if _, _, ok := tok.TopLevelRange("<a>1</a>", "missing"); ok {
		t.Fatal("expected ok=false when name never appears")
	}
}
