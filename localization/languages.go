// Package localization selects and describes the languages the
// application can serve.
package localization

import (
	"regexp"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is generic English; it is always supported.
const DefaultLanguage = "en"

// languageCodePattern accepts two lowercase letters, optionally followed
// by a dash and two uppercase letters (e.g. "de", "de-AT").
var languageCodePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// LanguageName pairs a language code with its display name in the
// current language (and, if different, its native name).
type LanguageName struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages is the set of supported language codes with the matcher used
// for content negotiation.
type Languages struct {
	codes   []string
	matcher language.Matcher
}

// New builds the supported language set from the configured codes. The
// default language always comes first; codes that do not match the
// expected pattern or cannot be parsed are dropped.
func New(configured []string) *Languages {
	codes := []string{DefaultLanguage}
	tags := []language.Tag{language.MustParse(DefaultLanguage)}

	for _, code := range configured {
		if code == DefaultLanguage || !languageCodePattern.MatchString(code) {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		codes = append(codes, code)
		tags = append(tags, tag)
	}

	return &Languages{
		codes:   codes,
		matcher: language.NewMatcher(tags),
	}
}

// Codes returns the supported language codes, default language first.
func (l *Languages) Codes() []string {
	codes := make([]string, len(l.codes))
	copy(codes, l.codes)
	return codes
}

// Supported reports whether the given code is a supported language.
func (l *Languages) Supported(code string) bool {
	for _, supported := range l.codes {
		if code == supported {
			return true
		}
	}
	return false
}

// Match returns the supported language best matching the given
// Accept-Language header. An empty or unusable header yields the default
// language.
func (l *Languages) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}

	_, index, _ := l.matcher.Match(tags...)
	return l.codes[index]
}

// Names lists the supported languages with their names in the language
// given by current. Languages other than the current one also carry
// their native name. The result is sorted by name.
func (l *Languages) Names(current string) []LanguageName {
	currentTag, err := language.Parse(current)
	if err != nil {
		currentTag = language.MustParse(DefaultLanguage)
	}
	namer := display.Languages(currentTag)

	names := make([]LanguageName, 0, len(l.codes))
	for _, code := range l.codes {
		tag := language.MustParse(code)
		name := namer.Name(tag)

		if code != current {
			if native := display.Self.Name(tag); native != "" && native != name {
				name = name + " (" + native + ")"
			}
		}
		names = append(names, LanguageName{Code: code, Name: name})
	}

	sort.Slice(names, func(i, j int) bool { return names[i].Name < names[j].Name })
	return names
}
