package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото листа
	StateProcessing    UserState = "processing"     // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID        int64     // Telegram User ID
	ChatID    int64     // Telegram Chat ID
	State     UserState // Текущее состояние пользователя
	Language  Language  // Язык ответов
	SessionID string    // Текущая сессия диагностики
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:       userID,
		ChatID:   chatID,
		State:    StateMainMenu,
		Language: LanguageEnglish,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetLanguage обновляет язык пользователя
func (u *User) SetLanguage(language Language) {
	u.Language = language
}

// BindSession привязывает сессию диагностики к пользователю
func (u *User) BindSession(sessionID string) {
	u.SessionID = sessionID
}
