package googletranslate

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
)

// Translator переводит текст через Cloud Translation API v2.
// Исходный язык не передаётся, сервис определяет его сам.
type Translator struct {
	svc *translate.Service
}

// NewTranslator создаёт клиента с ключом API
func NewTranslator(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Translator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google translate API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate service: %w", err)
	}
	return &Translator{svc: svc}, nil
}

// Translate переводит текст на целевой язык
func (t *Translator) Translate(ctx context.Context, text string, target entity.Language) (string, error) {
	resp, err := t.svc.Translations.List([]string{text}, target.Code()).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", target.Name(), err)
	}
	if len(resp.Translations) == 0 {
		return "", errors.New("translate: empty response")
	}

	return strings.TrimSpace(html.UnescapeString(resp.Translations[0].TranslatedText)), nil
}

// Проверка реализации интерфейса
var _ port.Translator = (*Translator)(nil)
