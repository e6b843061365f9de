package xmltag

import (
	"github.com/digitallysavvy/toolprotocol/pkg/schema"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/xmltokenizer"
)

// parseSegment is the underlying (non-heuristic) parse the heuristic engine
// retries: it walks rawSegment's top-level child tags against schemaDesc's
// declared properties using byte-range extraction rather than a full tree
// decode, so string-typed tags keep their exact inner bytes (including
// embedded markup the schema never asked to be interpreted).
func parseSegment(tok xmltokenizer.Tokenizer, toolName, rawSegment string, schemaDesc map[string]interface{}) (interface{}, error) {
	return parseObject(tok, toolName, rawSegment, schemaDesc)
}

func parseObject(tok xmltokenizer.Tokenizer, toolName, rawSegment string, schemaDesc map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for name := range schema.Properties(schemaDesc) {
		occurrences := findAllTopLevel(tok, rawSegment, name)
		if len(occurrences) == 0 {
			continue
		}
		if len(occurrences) > 1 {
			return nil, &toolprotocol.ErrDuplicateStringTag{ToolName: toolName, TagName: name}
		}

		start, end := occurrences[0][0], occurrences[0][1]
		fullTag := rawSegment[start:end]
		inner, _ := tok.RawInner(fullTag)
		childSchema, _ := schema.Property(schemaDesc, name)

		switch schema.SchemaType(childSchema) {
		case "string":
			result[name] = inner
		case "object":
			obj, err := parseObject(tok, toolName, inner, childSchema)
			if err != nil {
				return nil, err
			}
			result[name] = obj
		case "array":
			arr, err := parseArray(tok, toolName, inner, childSchema)
			if err != nil {
				return nil, err
			}
			result[name] = arr
		default:
			result[name] = inner
		}
	}
	return result, nil
}

// parseArray reads a sequence of "<item>…</item>" siblings inside inner, the
// wrapper convention this protocol uses for array-typed properties.
func parseArray(tok xmltokenizer.Tokenizer, toolName, inner string, schemaDesc map[string]interface{}) ([]interface{}, error) {
	itemSchema, _ := schema.ItemSchema(schemaDesc)
	items := []interface{}{}
	remaining := inner

	for {
		start, end, ok := tok.TopLevelRange(remaining, "item")
		if !ok {
			break
		}
		fullTag := remaining[start:end]
		itemInner, _ := tok.RawInner(fullTag)

		switch schema.SchemaType(itemSchema) {
		case "object":
			obj, err := parseObject(tok, toolName, itemInner, itemSchema)
			if err != nil {
				return nil, err
			}
			items = append(items, obj)
		case "array":
			arr, err := parseArray(tok, toolName, itemInner, itemSchema)
			if err != nil {
				return nil, err
			}
			items = append(items, arr)
		default:
			items = append(items, itemInner)
		}
		remaining = remaining[end:]
	}

	return items, nil
}

// findAllTopLevel returns the byte ranges (in text's own coordinates) of
// every balanced top-level occurrence of name in text, left to right.
func findAllTopLevel(tok xmltokenizer.Tokenizer, text, name string) [][2]int {
	var ranges [][2]int
	base := 0
	remaining := text
	for {
		start, end, ok := tok.TopLevelRange(remaining, name)
		if !ok {
			break
		}
		ranges = append(ranges, [2]int{base + start, base + end})
		base += end
		remaining = remaining[end:]
	}
	return ranges
}
