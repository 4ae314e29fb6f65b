package port

import (
	"context"

	"leaf-doctor/internal/domain/entity"
)

// Translator интерфейс бэкенда перевода. Исходный язык определяется автоматически.
type Translator interface {
	// Translate переводит текст на целевой язык
	Translate(ctx context.Context, text string, target entity.Language) (string, error)
}
