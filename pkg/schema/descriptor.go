package schema

// UnwrapSchema transparently unwraps common wrapper shapes — e.g.
// {"jsonSchema": {...}} — before inspection, so callers never need to know
// whether a schema arrived wrapped. Unrecognized shapes are returned as-is.
func UnwrapSchema(s map[string]interface{}) map[string]interface{} {
	for {
		unwrapped, ok := unwrapOnce(s)
		if !ok {
			return s
		}
		s = unwrapped
	}
}

func unwrapOnce(s map[string]interface{}) (map[string]interface{}, bool) {
	if s == nil {
		return nil, false
	}
	for _, key := range []string{"jsonSchema", "schema", "json_schema"} {
		if inner, ok := s[key].(map[string]interface{}); ok {
			return inner, true
		}
	}
	return nil, false
}

// SchemaType returns the declared "type" of a schema node, or "" if the
// schema is nil or its "type" is absent or not a string.
func SchemaType(s map[string]interface{}) string {
	s = UnwrapSchema(s)
	if s == nil {
		return ""
	}
	t, _ := s["type"].(string)
	return t
}

// Properties returns the "properties" map of an object schema, or nil.
func Properties(s map[string]interface{}) map[string]interface{} {
	s = UnwrapSchema(s)
	if s == nil {
		return nil
	}
	props, _ := s["properties"].(map[string]interface{})
	return props
}

// Property returns the unwrapped child schema for a given top-level property
// name, and whether it was declared at all.
func Property(s map[string]interface{}, name string) (map[string]interface{}, bool) {
	props := Properties(s)
	if props == nil {
		return nil, false
	}
	child, ok := props[name].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return UnwrapSchema(child), true
}

// ItemSchema returns the unwrapped "items" schema of an array schema.
func ItemSchema(s map[string]interface{}) (map[string]interface{}, bool) {
	s = UnwrapSchema(s)
	if s == nil {
		return nil, false
	}
	items, ok := s["items"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return UnwrapSchema(items), true
}

// RequiredProperties returns the "required" list of an object schema.
// Accepts both []string and []interface{} (the common shape after a
// JSON round-trip) representations.
func RequiredProperties(s map[string]interface{}) []string {
	s = UnwrapSchema(s)
	if s == nil {
		return nil
	}
	switch req := s["required"].(type) {
	case []string:
		return req
	case []interface{}:
		result := make([]string, 0, len(req))
		for _, v := range req {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// StringProperties returns the top-level property names declared
// type:"string" in an object schema, in the order Properties iterates them.
// Go map iteration order is unspecified, so callers that need deterministic
// output should sort the result; the heuristics that consume this (e.g.
// dedupe-shell-string-tags) only need membership, not order.
func StringProperties(s map[string]interface{}) []string {
	props := Properties(s)
	if props == nil {
		return nil
	}
	var result []string
	for name, child := range props {
		childSchema, ok := child.(map[string]interface{})
		if !ok {
			continue
		}
		if SchemaType(childSchema) == "string" {
			result = append(result, name)
		}
	}
	return result
}

// IsArrayProperty reports whether propName is declared type:"array" among
// s's top-level properties.
func IsArrayProperty(s map[string]interface{}, propName string) bool {
	child, ok := Property(s, propName)
	if !ok {
		return false
	}
	return SchemaType(child) == "array"
}

// HasArrayCommandProperty reports whether the schema declares a top-level
// "command" property of type "array" — the heuristic recognizer for
// shell-like tools used by the dedupe-shell-string-tags heuristic.
func HasArrayCommandProperty(s map[string]interface{}) bool {
	return IsArrayProperty(s, "command")
}
