package termrender

import "github.com/unilibs/uniwidth"

// RuneWidth returns the display width of a rune (0, 1, or 2 columns).
func RuneWidth(r rune) int {
	return uniwidth.RuneWidth(r)
}

// IsWideRune returns true if the rune occupies 2 columns (CJK, emoji, etc.).
func IsWideRune(r rune) bool {
	return uniwidth.RuneWidth(r) == 2
}

// StringWidth returns the display width of a string in columns.
func StringWidth(s string) int {
	return uniwidth.StringWidth(s)
}
