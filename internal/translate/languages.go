package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages lists the selectable target languages, source first.
var Languages = []string{"en", "hi", "bn", "ta", "te", "mr", "gu", "kn", "ml", "pa", "ur", "es", "fr", "de"}

// LanguageName returns the name of code in that language, for example
// "español" for "es". Unknown codes are returned as given.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// Title upper-cases the first letter of a language name for display.
func Title(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// NextLanguage returns the language after code in Languages, wrapping around.
func NextLanguage(code string) string {
	for i, c := range Languages {
		if c == code {
			return Languages[(i+1)%len(Languages)]
		}
	}
	return Languages[0]
}
