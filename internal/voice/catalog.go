// Package voice holds the fixed catalog of language/voice pairings.
package voice

import (
	"fmt"
	"strconv"
	"strings"
)

// LanguageVoice selects both the recognition locale and the synthesis voice.
type LanguageVoice struct {
	Name   string
	Locale string
	Voice  string
}

// Language returns the primary language subtag of Locale.
func (lv LanguageVoice) Language() string {
	lang, _, _ := strings.Cut(lv.Locale, "-")
	return lang
}

// NameAndLocale renders "English [en-US]".
func (lv LanguageVoice) NameAndLocale() string {
	return fmt.Sprintf("%s [%s]", lv.Name, lv.Locale)
}

// NameAndVoice renders "English [en-US-JennyNeural]".
func (lv LanguageVoice) NameAndVoice() string {
	return fmt.Sprintf("%s [%s]", lv.Name, lv.Voice)
}

// IsZero reports an unset selection.
func (lv LanguageVoice) IsZero() bool {
	return lv == LanguageVoice{}
}

var catalog = [...]LanguageVoice{
	{Name: "Chinese", Locale: "zh-TW", Voice: "zh-TW-HsiaoChenNeural"},
	{Name: "English", Locale: "en-US", Voice: "en-US-JennyNeural"},
	{Name: "English", Locale: "en-US", Voice: "en-US-TonyNeural"},
	{Name: "French", Locale: "fr-FR", Voice: "fr-FR-BrigitteNeural"},
	{Name: "German", Locale: "de-DE", Voice: "de-DE-KatjaNeural"},
	{Name: "Italian", Locale: "it-IT", Voice: "it-IT-IsabellaNeural"},
	{Name: "Spanish", Locale: "es-ES", Voice: "es-ES-ElviraNeural"},
}

// Catalog returns a copy of the supported pairings in display order.
func Catalog() []LanguageVoice {
	out := make([]LanguageVoice, len(catalog))
	copy(out, catalog[:])
	return out
}

// Default is the selection used before the user picks one.
func Default() LanguageVoice {
	return catalog[1]
}

// Find returns the catalog entry matching locale and voice exactly.
func Find(locale, voiceName string) (LanguageVoice, bool) {
	for _, lv := range catalog {
		if lv.Locale == locale && lv.Voice == voiceName {
			return lv, true
		}
	}
	return LanguageVoice{}, false
}

// Resolve accepts a 1-based catalog index, "locale/voice", a voice name, or a
// locale (first match). Matching is case-insensitive.
func Resolve(query string) (LanguageVoice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return LanguageVoice{}, fmt.Errorf("voice selection is empty")
	}

	if n, err := strconv.Atoi(query); err == nil {
		if n < 1 || n > len(catalog) {
			return LanguageVoice{}, fmt.Errorf("voice index %d out of range 1..%d", n, len(catalog))
		}
		return catalog[n-1], nil
	}

	if locale, voiceName, ok := strings.Cut(query, "/"); ok {
		for _, lv := range catalog {
			if strings.EqualFold(lv.Locale, locale) && strings.EqualFold(lv.Voice, voiceName) {
				return lv, nil
			}
		}
		return LanguageVoice{}, fmt.Errorf("unknown voice %q", query)
	}

	for _, lv := range catalog {
		if strings.EqualFold(lv.Voice, query) {
			return lv, nil
		}
	}
	for _, lv := range catalog {
		if strings.EqualFold(lv.Locale, query) {
			return lv, nil
		}
	}
	return LanguageVoice{}, fmt.Errorf("unknown voice %q", query)
}
