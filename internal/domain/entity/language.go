package entity

import (
	"fmt"
	"strings"
)

// Language язык отображения результатов
type Language string

const (
	LanguageEnglish Language = "en" // Английский, язык модели
	LanguageHausa   Language = "ha" // Хауса
)

// languageNames человекочитаемые названия известных языков
var languageNames = map[Language]string{
	LanguageEnglish: "English",
	LanguageHausa:   "Hausa",
}

// ParseLanguage разбирает код или название языка без учёта регистра.
// Неизвестный, но корректно выглядящий код принимается: каталог промптов
// может добавлять языки.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownLanguage)
	}

	for code, name := range languageNames {
		if s == string(code) || s == strings.ToLower(name) {
			return code, nil
		}
	}

	if len(s) < 2 || len(s) > 3 {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
		}
	}
	return Language(s), nil
}

// Code возвращает код языка
func (l Language) Code() string {
	return string(l)
}

// Name возвращает название языка, для неизвестных языков — код
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}

// IsEnglish сообщает, нужен ли перевод вывода модели
func (l Language) IsEnglish() bool {
	return l == LanguageEnglish || l == ""
}
