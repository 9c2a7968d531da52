package bitwarden

// navigate walks a dotted field path into an item's decoded JSON, segment by
// segment. The "fields" segment is special: once the walk stands on the
// custom-field list, the next segment selects entries by their name and
// projects their values, returning a sequence even for a single match.
// Callers that want a scalar get a one-element slice; that quirk is part of
// the lookup contract.
func navigate(root interface{}, segments []string, fieldPath, term string) (interface{}, error) {
	current := root

	for _, segment := range segments {
		switch value := current.(type) {
		case map[string]interface{}:
			next, ok := value[segment]
			if !ok {
				return nil, FieldNotFoundError{Field: fieldPath, Key: term}
			}
			current = next

		case []interface{}:
			if segments[0] == "fields" {
				return projectNamedValues(value, segment), nil
			}

			projected, ok := projectKey(value, segment)
			if !ok {
				return nil, FieldNotFoundError{Field: fieldPath, Key: term}
			}
			current = projected

		default:
			return nil, FieldNotFoundError{Field: fieldPath, Key: term}
		}
	}

	return current, nil
}

// projectNamedValues filters a custom-field list for entries whose name
// equals the requested segment and returns their values. The result may be
// empty and is always a sequence.
func projectNamedValues(list []interface{}, name string) []interface{} {
	values := make([]interface{}, 0)
	for _, element := range list {
		entry, ok := element.(map[string]interface{})
		if !ok {
			continue
		}
		if entry["name"] == name {
			values = append(values, entry["value"])
		}
	}
	return values
}

// projectKey maps a list of objects to the value of one key on each element.
// It fails when any element is not an object or lacks the key.
func projectKey(list []interface{}, key string) ([]interface{}, bool) {
	projected := make([]interface{}, 0, len(list))
	for _, element := range list {
		entry, ok := element.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, ok := entry[key]
		if !ok {
			return nil, false
		}
		projected = append(projected, value)
	}
	return projected, true
}
