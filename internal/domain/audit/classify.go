package audit

import (
	"encoding/json"
	"strings"
)

// Classify decides from the operation name and argument shape whether a call
// is audited and what is recorded:
//
//   - a name containing "Delete" is a Delete with every argument as payload;
//   - a name containing "Query" or "Get" is a Query without payload;
//   - exactly two arguments with a ChangeKind second is a Create or Update
//     with only the first argument as payload.
//
// Anything else is not audited and ok is false. The rules are checked in
// that order.
func Classify(method string, args []any) (action Action, payload string, ok bool) {
	if strings.Contains(method, "Delete") {
		return Delete, serialize(args), true
	}

	if strings.Contains(method, "Query") || strings.Contains(method, "Get") {
		return Query, "", true
	}

	if len(args) == 2 {
		if kind, isKind := args[1].(ChangeKind); isKind {
			switch kind {
			case ChangeAdd:
				return Create, serialize(args[0]), true
			case ChangeUpdate:
				return Update, serialize(args[0]), true
			}
			return Query, "", true
		}
	}

	return "", "", false
}

// serialize renders v as JSON. Values that cannot be encoded yield "".
func serialize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
