package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий диагностики.
// Наружу отдаются только копии, поэтому вызывающие не делят состояние.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

// NewMemorySessionRepository создаёт пустое хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*entity.Session),
	}
}

// Create создаёт сессию с новым идентификатором
func (r *MemorySessionRepository) Create(ctx context.Context, language entity.Language) (*entity.Session, error) {
	session := entity.NewSession(uuid.NewString(), language)

	r.mu.Lock()
	r.sessions[session.ID] = session.Clone()
	r.mu.Unlock()

	return session, nil
}

// Get возвращает копию сессии
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Save сохраняет состояние сессии
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return entity.ErrSessionNotFound
	}
	r.sessions[session.ID] = session.Clone()
	return nil
}

// Delete удаляет сессию
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return entity.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
