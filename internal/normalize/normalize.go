package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization currently trims surrounding
// whitespace and lower-cases the address.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Username canonicalizes a username the same way so lookups and the
// unique index treat mixed-case spellings as one account.
func Username(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
