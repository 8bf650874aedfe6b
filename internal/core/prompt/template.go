// Package prompt renders the final prompt text per media kind: operator
// templates with variable substitution, built-in defaults, and automatic
// output-format enforcement.
package prompt

import (
	"fmt"
	"strings"
)

// Substitute renders every {name} or {name.nested.path} token in template
// against the context. Unresolved tokens are left verbatim rather than
// raising, so operators can spot typos in their own templates.
func Substitute(template string, context map[string]any) string {
	if template == "" || len(context) == 0 {
		return template
	}

	var sb strings.Builder

	sb.Grow(len(template))

	for i := 0; i < len(template); {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			sb.WriteString(template[i:])
			break
		}

		open += i
		sb.WriteString(template[i:open])

		closing := strings.IndexByte(template[open:], '}')
		if closing < 0 {
			sb.WriteString(template[open:])
			break
		}

		closing += open
		token := template[open+1 : closing]

		if value, ok := lookup(context, token); ok {
			sb.WriteString(stringify(value))
		} else {
			// Keep the token as written, braces included.
			sb.WriteString(template[open : closing+1])
		}

		i = closing + 1
	}

	return sb.String()
}

// lookup resolves a dotted path against nested maps. A missing segment or a
// non-map intermediate value resolves to not-found, never an error.
func lookup(context map[string]any, token string) (any, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}

	parts := strings.Split(token, ".")

	var current any = context

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
