package lex

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MalformedNameError reports an intent name without a category segment.
// Row is the 1-based sheet row of the block header, 0 when unknown.
type MalformedNameError struct {
	Raw string
	Row int
}

func (e *MalformedNameError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: malformed intent name %q: want <category>.<name>", e.Row, e.Raw)
	}
	return fmt.Sprintf("malformed intent name %q: want <category>.<name>", e.Raw)
}

// ParseName turns a dotted Dialogflow intent name into a Lex resource name.
//
//	ParseName("Category.Sub.do_something", "X_") == "X_Sub_DoSomething"
//	ParseName("a.b_c", "")                      == "A_BC"
//
// The last segment is the base name and the one before it the category.
func ParseName(raw, prefix string) (string, error) {
	segs := strings.Split(raw, ".")
	if len(segs) < 2 {
		return "", &MalformedNameError{Raw: raw}
	}

	base := segs[len(segs)-1]
	category := segs[len(segs)-2]

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(Capitalize(category))
	b.WriteByte('_')
	for _, w := range strings.Split(base, "_") {
		b.WriteString(Capitalize(w))
	}
	return b.String(), nil
}

// Capitalize title-cases the first rune and lower-cases the rest,
// so "SMS" becomes "Sms".
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}
