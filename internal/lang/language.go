// Package lang validates the language hint passed to speech recognizers and
// the cleanup service.
package lang

import (
	"fmt"
	"strings"
)

// languages maps every ISO 639-1 code accepted as a recognition hint to its
// English name. Both the OpenAI audio API and whisper.cpp models cover it.
var languages = map[string]string{
	"af": "Afrikaans", "ar": "Arabic", "bg": "Bulgarian", "bn": "Bengali",
	"ca": "Catalan", "cs": "Czech", "da": "Danish", "de": "German",
	"el": "Greek", "en": "English", "es": "Spanish", "et": "Estonian",
	"fa": "Persian", "fi": "Finnish", "fr": "French", "gu": "Gujarati",
	"he": "Hebrew", "hi": "Hindi", "hr": "Croatian", "hu": "Hungarian",
	"id": "Indonesian", "it": "Italian", "ja": "Japanese", "kn": "Kannada",
	"ko": "Korean", "lt": "Lithuanian", "lv": "Latvian", "mk": "Macedonian",
	"ml": "Malayalam", "mr": "Marathi", "ms": "Malay", "nl": "Dutch",
	"no": "Norwegian", "pa": "Punjabi", "pl": "Polish", "pt": "Portuguese",
	"ro": "Romanian", "ru": "Russian", "sk": "Slovak", "sl": "Slovenian",
	"sr": "Serbian", "sv": "Swedish", "sw": "Swahili", "ta": "Tamil",
	"te": "Telugu", "th": "Thai", "tl": "Tagalog", "tr": "Turkish",
	"uk": "Ukrainian", "ur": "Urdu", "vi": "Vietnamese", "zh": "Chinese",
}

// regional names locales whose variant changes spelling, which matters to
// the cleanup prompt.
var regional = map[string]string{
	"en-us": "American English",
	"en-gb": "British English",
	"fr-ca": "Canadian French",
	"es-mx": "Mexican Spanish",
	"pt-br": "Brazilian Portuguese",
	"pt-pt": "European Portuguese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// Normalize lowercases a code and uses "-" as the region separator.
// "pt_BR", "PT-BR" and "pt-br" all become "pt-br".
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// BaseCode returns the language part of a locale: "pt-BR" -> "pt".
// Recognizers only accept base codes.
func BaseCode(code string) string {
	base, _, _ := strings.Cut(Normalize(code), "-")
	return base
}

// Validate accepts the empty hint (auto-detect), ISO 639-1 codes, and
// locales whose base code is known. Anything else wraps ErrInvalid.
func Validate(code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if _, ok := languages[BaseCode(code)]; !ok {
		return fmt.Errorf("language %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w", code, ErrInvalid)
	}
	return nil
}

// RecognizerCode returns the language argument for recognizers that
// require one: the base code, or "auto" when no hint was given.
func RecognizerCode(code string) string {
	if base := BaseCode(code); base != "" {
		return base
	}
	return "auto"
}

// DisplayName names a locale for the cleanup prompt, falling back from the
// regional name to the base language name and finally to code itself.
func DisplayName(code string) string {
	norm := Normalize(code)
	if name, ok := regional[norm]; ok {
		return name
	}
	if name, ok := languages[BaseCode(norm)]; ok {
		return name
	}
	return code
}
