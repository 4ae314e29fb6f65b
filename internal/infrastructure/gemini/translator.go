package gemini

import (
	"context"
	"fmt"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
	"leaf-doctor/internal/domain/prompt"
)

// PromptTranslator переводит текст той же моделью, промптом из каталога
type PromptTranslator struct {
	client  port.InferenceClient
	catalog *prompt.Catalog
}

func NewPromptTranslator(client port.InferenceClient, catalog *prompt.Catalog) *PromptTranslator {
	return &PromptTranslator{client: client, catalog: catalog}
}

// Translate переводит текст на целевой язык
func (t *PromptTranslator) Translate(ctx context.Context, text string, target entity.Language) (string, error) {
	tpl, err := t.catalog.Template(entity.StageTranslate, target)
	if err != nil {
		return "", err
	}

	out, err := t.client.Infer(ctx, []port.Part{
		port.TextPart(tpl.String()),
		port.TextPart(text),
	})
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", target.Name(), err)
	}
	return out, nil
}

// Проверка реализации интерфейса
var _ port.Translator = (*PromptTranslator)(nil)
