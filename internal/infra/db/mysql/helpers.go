package mysql

import "encoding/json"

// jsonDoc serializes a nested document for a JSON column; empty or
// unserializable values fall back to an empty object so the column
// constraint never rejects the row.
func jsonDoc(v any) string {
	b, err := json.Marshal(v)
	if err != nil || len(b) == 0 {
		return "{}"
	}
	return string(b)
}

// jsonList is jsonDoc for array-valued columns.
func jsonList(v any) string {
	b, err := json.Marshal(v)
	if err != nil || len(b) == 0 {
		return "[]"
	}
	return string(b)
}
