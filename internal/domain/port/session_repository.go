package port

import (
	"context"

	"leaf-doctor/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий диагностики
type SessionRepository interface {
	// Create создаёт новую сессию
	Create(ctx context.Context, language entity.Language) (*entity.Session, error)

	// Get возвращает сессию или entity.ErrSessionNotFound
	Get(ctx context.Context, id string) (*entity.Session, error)

	// Save сохраняет состояние сессии
	Save(ctx context.Context, session *entity.Session) error

	// Delete удаляет сессию
	Delete(ctx context.Context, id string) error
}
