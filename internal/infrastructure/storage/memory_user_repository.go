package storage

import (
	"context"
	"sync"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей
type MemoryUserRepository struct {
	mu              sync.RWMutex
	users           map[int64]*entity.User
	defaultLanguage entity.Language
}

// NewMemoryUserRepository создаёт новое in-memory хранилище.
// Новые пользователи получают язык по умолчанию.
func NewMemoryUserRepository(defaultLanguage entity.Language) *MemoryUserRepository {
	if defaultLanguage == "" {
		defaultLanguage = entity.LanguageEnglish
	}
	return &MemoryUserRepository{
		users:           make(map[int64]*entity.User),
		defaultLanguage: defaultLanguage,
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		u := *user
		return &u, nil
	}

	newUser := entity.NewUser(userID, chatID)
	newUser.SetLanguage(r.defaultLanguage)

	r.mu.Lock()
	if existing, ok := r.users[userID]; ok {
		r.mu.Unlock()
		u := *existing
		return &u, nil
	}
	r.users[userID] = newUser
	r.mu.Unlock()

	u := *newUser
	return &u, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	u := *user

	r.mu.Lock()
	r.users[user.ID] = &u
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
