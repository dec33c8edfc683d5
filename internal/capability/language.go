// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capability

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// =============================================================================
// OUTPUT LANGUAGES
// =============================================================================

// Language is an output language offered to the user.
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

var languages = []Language{
	{"English", "en"},
	{"Tamil", "ta"},
	{"Hindi", "hi"},
	{"Spanish", "es"},
	{"French", "fr"},
	{"German", "de"},
	{"Japanese", "ja"},
	{"Arabic", "ar"},
	{"Chinese", "zh-CN"},
	{"Portuguese", "pt"},
	{"Korean", "ko"},
	{"Russian", "ru"},
}

var languageMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(languages))
	for i, l := range languages {
		tags[i] = language.MustParse(l.Code)
	}
	return language.NewMatcher(tags)
}()

// Languages returns the supported output languages in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LanguageName returns the display name for a supported code.
func LanguageName(code string) string {
	for _, l := range languages {
		if strings.EqualFold(l.Code, code) {
			return l.Name
		}
	}
	return code
}

// ParseLanguage resolves a display name ("Tamil"), a supported code ("ta")
// or any BCP 47 tag close to one ("ta-IN", "pt-BR") to a supported code.
func ParseLanguage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLanguage, nil
	}
	for _, l := range languages {
		if strings.EqualFold(l.Name, s) || strings.EqualFold(l.Code, s) {
			return l.Code, nil
		}
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unknown language %q", s)
	}
	_, index, confidence := languageMatcher.Match(tag)
	if confidence == language.No {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return languages[index].Code, nil
}
