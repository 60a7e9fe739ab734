// Package strings holds identifier folding helpers shared by the ORM packages
package strings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase or camelCase to snake_case.
// The first rune is lower-cased; every later upper-case rune is replaced by
// '_' and its lower-case form. Nothing else is re-segmented, so acronyms fold
// letter by letter (ID -> i_d) and snake_case input passes through unchanged.
func ToSnakeCase(s string) string {
	if s == "" {
		return s
	}

	var result strings.Builder
	result.Grow(len(s) + 4)

	for i, r := range s {
		switch {
		case i == 0:
			result.WriteRune(unicode.ToLower(r))
		case unicode.IsUpper(r):
			result.WriteRune('_')
			result.WriteRune(unicode.ToLower(r))
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
