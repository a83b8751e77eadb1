// Package lang models the output language of a generated blog post.
package lang

import (
	"fmt"
	"strings"
)

// names maps supported ISO 639-1 base codes and common locales to display names.
var names = map[string]string{
	"ar":    "Arabic",
	"bg":    "Bulgarian",
	"ca":    "Catalan",
	"cs":    "Czech",
	"da":    "Danish",
	"de":    "German",
	"el":    "Greek",
	"en":    "English",
	"en-gb": "British English",
	"en-us": "American English",
	"es":    "Spanish",
	"es-mx": "Mexican Spanish",
	"fi":    "Finnish",
	"fr":    "French",
	"fr-ca": "Canadian French",
	"he":    "Hebrew",
	"hi":    "Hindi",
	"hu":    "Hungarian",
	"id":    "Indonesian",
	"it":    "Italian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"nl":    "Dutch",
	"no":    "Norwegian",
	"pl":    "Polish",
	"pt":    "Portuguese",
	"pt-br": "Brazilian Portuguese",
	"pt-pt": "European Portuguese",
	"ro":    "Romanian",
	"ru":    "Russian",
	"sk":    "Slovak",
	"sv":    "Swedish",
	"th":    "Thai",
	"tr":    "Turkish",
	"uk":    "Ukrainian",
	"vi":    "Vietnamese",
	"zh":    "Chinese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// Language is a validated, normalized language code such as "fr" or "pt-br".
// The zero value means "not specified" and generation keeps the transcript's language.
type Language struct {
	code string
}

// Parse normalizes and validates a language code.
// Accepts "pt-BR", "pt_BR" and "PT-br" alike. Empty input returns the zero Language.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, nil
	}
	code := strings.ToLower(strings.ReplaceAll(s, "_", "-"))
	if _, ok := names[base(code)]; !ok {
		return Language{}, fmt.Errorf("unsupported language %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			s, ErrInvalid)
	}
	return Language{code: code}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for tests and constants.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

func base(code string) string {
	if i := strings.IndexByte(code, '-'); i != -1 {
		return code[:i]
	}
	return code
}

// Code returns the normalized code, or "" for the zero value.
func (l Language) Code() string { return l.code }

// String implements fmt.Stringer.
func (l Language) String() string { return l.code }

// IsZero reports whether no language was specified.
func (l Language) IsZero() bool { return l.code == "" }

// IsEnglish reports whether the language is English or an English locale.
func (l Language) IsEnglish() bool { return base(l.code) == "en" }

// DisplayName returns a human-readable name, falling back to the base language
// and finally to the code itself.
func (l Language) DisplayName() string {
	if name, ok := names[l.code]; ok {
		return name
	}
	if name, ok := names[base(l.code)]; ok {
		return name
	}
	return l.code
}

// Instruction returns the prompt directive for writing in this language.
// Unspecified and English languages need no directive.
func (l Language) Instruction() string {
	if l.IsZero() || l.IsEnglish() {
		return ""
	}
	return fmt.Sprintf("Write the entire output in %s.", l.DisplayName())
}
