// Package coerce implements schema-directed coercion: given a weakly-typed
// value produced by the XML tokenizer or the relaxed JSON reader, and a
// JSON-Schema-like descriptor, it produces a value that satisfies the
// schema's declared types wherever that is feasible. The coercer is pure and
// total — every input yields some output, and it never errors.
package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/digitallysavvy/toolprotocol/pkg/jsonparser"
	"github.com/digitallysavvy/toolprotocol/pkg/schema"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/xmlrepair"
	"github.com/digitallysavvy/toolprotocol/pkg/toolprotocol/xmltokenizer"
)

// Coercer applies schema-directed coercion. It holds an XML tokenizer used
// only by the string-to-object rescue path (§4.5's item (b) rule).
type Coercer struct {
	tokenizer xmltokenizer.Tokenizer
}

// New returns a Coercer backed by tok for its XML-rescue path.
func New(tok xmltokenizer.Tokenizer) *Coercer {
	return &Coercer{tokenizer: tok}
}

// Coerce repairs value to satisfy schemaDesc where feasible. It never
// errors; values it cannot usefully coerce are returned unchanged.
func (c *Coercer) Coerce(value interface{}, schemaDesc map[string]interface{}) interface{} {
	schemaDesc = schema.UnwrapSchema(schemaDesc)
	if schemaDesc == nil {
		return value
	}

	switch schema.SchemaType(schemaDesc) {
	case "object":
		return c.coerceObject(value, schemaDesc)
	case "array":
		return c.coerceArray(value, schemaDesc)
	case "number", "integer":
		return coerceNumber(value)
	case "boolean":
		return coerceBoolean(value)
	case "string":
		return value
	default:
		return value
	}
}

func (c *Coercer) coerceObject(value interface{}, schemaDesc map[string]interface{}) interface{} {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	result := make(map[string]interface{}, len(obj))
	for key, v := range obj {
		childSchema, ok := schema.Property(schemaDesc, key)
		if !ok {
			result[key] = v // unknown properties retained as-is
			continue
		}
		result[key] = c.Coerce(v, childSchema)
	}
	return result
}

func (c *Coercer) coerceArray(value interface{}, schemaDesc map[string]interface{}) interface{} {
	itemSchema, hasItemSchema := schema.ItemSchema(schemaDesc)

	arr, ok := asArray(value)
	if !ok {
		// Item-wrapped arrays: the XML tokenizer may have produced
		// {item: [...]} or {item: singleValue} for an element the schema
		// declares as an array; unwrap that wrapper.
		if obj, isObj := value.(map[string]interface{}); isObj {
			if wrapped, hasItem := obj["item"]; hasItem && len(obj) == 1 {
				if wrappedArr, isArr := asArray(wrapped); isArr {
					arr = wrappedArr
				} else {
					arr = []interface{}{wrapped}
				}
				ok = true
			}
		}
		// Comma/newline/whitespace-separated scalar lists inside a scalar
		// string, when the schema wants an array of numeric/string items.
		if !ok {
			if s, isStr := value.(string); isStr && hasItemSchema {
				if itemType := schema.SchemaType(itemSchema); itemType == "number" || itemType == "integer" || itemType == "string" {
					arr = splitScalarList(s)
					ok = true
				}
			}
		}
	}
	if !ok {
		return value
	}

	if !hasItemSchema {
		return arr
	}

	result := make([]interface{}, len(arr))
	for i, item := range arr {
		result[i] = c.coerceItem(item, itemSchema)
	}
	return result
}

func asArray(value interface{}) ([]interface{}, bool) {
	arr, ok := value.([]interface{})
	return arr, ok
}

// coerceItem is like Coerce but additionally applies the string→object
// rescue path (§4.5 item (b)/(c)) when the item schema wants an object and
// the value arrived as a string.
func (c *Coercer) coerceItem(value interface{}, itemSchema map[string]interface{}) interface{} {
	itemSchema = schema.UnwrapSchema(itemSchema)
	if schema.SchemaType(itemSchema) == "object" {
		if s, ok := value.(string); ok {
			return c.rescueObjectFromString(s, itemSchema)
		}
	}
	return c.Coerce(value, itemSchema)
}

// rescueObjectFromString attempts, in order: (a) relaxed-JSON parse, (b) the
// XML tokenizer against itemSchema, (c) the domain-specific <step>/<status>
// rescue. The first that produces an object wins; otherwise the original
// string is returned unchanged.
func (c *Coercer) rescueObjectFromString(s string, itemSchema map[string]interface{}) interface{} {
	if value, _, err := jsonparser.ParseRelaxed(s, jsonparser.ReadOptions{Mode: jsonparser.ModeRelaxed}); err == nil {
		if obj, ok := value.(map[string]interface{}); ok {
			return c.coerceObject(obj, itemSchema)
		}
	}

	normalized := xmlrepair.NormalizeCloseTags(s)
	if tree, err := c.tokenizer.Parse(normalized, itemSchema); err == nil {
		if obj, ok := treeToObject(tree.Root, itemSchema); ok {
			return c.coerceObject(obj, itemSchema)
		}
	}

	if obj, ok := rescueStepStatus(s); ok {
		return obj
	}

	return s
}

var (
	stepPattern   = regexp.MustCompile(`(?s)<step>(.*?)</step>`)
	statusPattern = regexp.MustCompile(`(?s)<status>(.*?)</status>`)
)

// rescueStepStatus synthesizes {step, status} from a string containing
// <step>…</step> and <status>…</status> fragments, the last resort in the
// string→object rescue chain for this domain's step/status tool shape.
func rescueStepStatus(s string) (map[string]interface{}, bool) {
	stepMatch := stepPattern.FindStringSubmatch(s)
	statusMatch := statusPattern.FindStringSubmatch(s)
	if stepMatch == nil && statusMatch == nil {
		return nil, false
	}
	result := make(map[string]interface{})
	if stepMatch != nil {
		result["step"] = stepMatch[1]
	}
	if statusMatch != nil {
		result["status"] = statusMatch[1]
	}
	return result, true
}

// treeToObject converts the top-level children of an xmltokenizer tree into
// a map, recursing into any child that itself has element children (whatever
// its schema type) and keeping leaf text as strings otherwise. ok is false for
// an empty tree.
func treeToObject(root *xmltokenizer.Node, schemaDesc map[string]interface{}) (map[string]interface{}, bool) {
	if root == nil || len(root.Children) == 0 {
		return nil, false
	}
	result := make(map[string]interface{})
	for _, child := range root.Children {
		if len(child.Children) > 0 {
			childSchema, _ := schema.Property(schemaDesc, child.Name)
			if obj, ok := treeToObject(child, childSchema); ok {
				result[child.Name] = obj
				continue
			}
		}
		result[child.Name] = child.Text
	}
	return result, true
}

func coerceNumber(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return value // empty/whitespace string becomes null-like: unchanged
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return value // non-numeric strings pass through unchanged
	}
	return f
}

func coerceBoolean(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true
	case "false":
		return false
	default:
		return value
	}
}

func splitScalarList(s string) []interface{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	result := make([]interface{}, len(fields))
	for i, f := range fields {
		result[i] = strings.TrimSpace(f)
	}
	return result
}
