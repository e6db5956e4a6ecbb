// Package lang validates output-language codes and renders them for prompts.
package lang

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned for codes outside the supported output languages.
var ErrInvalid = errors.New("invalid language code")

// knownBases holds the ISO 639-1 codes accepted as output languages,
// mapped to the name used in the prompt instruction.
var knownBases = map[string]string{
	"ar": "Arabic",
	"ca": "Catalan",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"eu": "Basque",
	"fi": "Finnish",
	"fr": "French",
	"gl": "Galician",
	"he": "Hebrew",
	"hi": "Hindi",
	"hu": "Hungarian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sv": "Swedish",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// regionalNames overrides the display name for common locales.
var regionalNames = map[string]string{
	"en-us": "American English",
	"en-gb": "British English",
	"es-es": "Castilian Spanish",
	"es-mx": "Mexican Spanish",
	"es-ar": "Rioplatense Spanish",
	"fr-ca": "Canadian French",
	"pt-br": "Brazilian Portuguese",
	"pt-pt": "European Portuguese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// Language is a validated output language.
// The zero value means "keep the language of the input".
type Language struct {
	code string
}

// Normalize lowercases a code and uses a hyphen separator.
// "pt_BR", "PT-BR" and "pt-br" all become "pt-br".
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// Parse validates a language code such as "es", "en" or "pt-BR".
// Empty input returns the zero Language.
func Parse(code string) (Language, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return Language{}, nil
	}
	if _, ok := knownBases[base(normalized)]; !ok {
		return Language{}, fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'es', 'en', 'pt-BR'): %w",
			code, ErrInvalid)
	}
	return Language{code: normalized}, nil
}

// MustParse parses a language code, panicking if invalid.
// Use only for constants and tests.
func MustParse(code string) Language {
	l, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the normalized code, or "" for the zero value.
func (l Language) String() string {
	return l.code
}

// IsZero reports whether no output language was chosen.
func (l Language) IsZero() bool {
	return l.code == ""
}

// BaseCode returns the ISO 639-1 part of the code ("pt-br" -> "pt").
func (l Language) BaseCode() string {
	return base(l.code)
}

// Is reports whether l shares its base language with other.
func (l Language) Is(other Language) bool {
	return !l.IsZero() && l.BaseCode() == other.BaseCode()
}

// DisplayName returns a human-readable name for prompts.
func (l Language) DisplayName() string {
	if name, ok := regionalNames[l.code]; ok {
		return name
	}
	if name, ok := knownBases[l.BaseCode()]; ok {
		return name
	}
	return l.code
}

// Instruction returns the sentence prepended to a prompt to force the output
// language, or "" for the zero value.
func (l Language) Instruction() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("Respond in %s.", l.DisplayName())
}

func base(normalized string) string {
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}
