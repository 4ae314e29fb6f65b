package entity

import "time"

// SessionState состояние конвейера диагностики
type SessionState string

const (
	SessionIdle             SessionState = "idle"              // Изображения ещё нет
	SessionImageAcquired    SessionState = "image_acquired"    // Изображение получено
	SessionDescriptionReady SessionState = "description_ready" // Описание готово, ждём подтверждения
	SessionDiagnosisReady   SessionState = "diagnosis_ready"   // Диагноз готов
)

// Translation перевод результата стадии на язык сессии.
// Английский оригинал при этом не меняется.
type Translation struct {
	Language Language
	Text     string
	Failed   bool   // перевод не удался, показываем оригинал
	Warning  string // сообщение для пользователя при неудаче
}

// Session одна сессия диагностики: изображение и полученные по нему тексты
type Session struct {
	ID           string
	Language     Language
	State        SessionState
	Image        *ImageHandle
	Description  string
	Diagnosis    string
	Translations map[Stage]Translation
	UpdatedAt    time.Time
}

// NewSession создаёт пустую сессию
func NewSession(id string, language Language) *Session {
	if language == "" {
		language = LanguageEnglish
	}
	return &Session{
		ID:           id,
		Language:     language,
		State:        SessionIdle,
		Translations: make(map[Stage]Translation),
		UpdatedAt:    time.Now(),
	}
}

// Acquire привязывает новое изображение и начинает сессию заново.
// Возвращает предыдущее изображение, чтобы вызывающий мог удалить файл.
func (s *Session) Acquire(image *ImageHandle) *ImageHandle {
	previous := s.Image
	s.Image = image
	s.Description = ""
	s.Diagnosis = ""
	s.Translations = make(map[Stage]Translation)
	s.State = SessionImageAcquired
	s.touch()
	return previous
}

// HasImage сообщает, запущен ли конвейер
func (s *Session) HasImage() bool {
	return s.Image != nil
}

// SetDescription сохраняет описание изображения.
// Повторное описание сбрасывает диагноз, полученный по старому описанию.
func (s *Session) SetDescription(text string) error {
	if !s.HasImage() {
		return ErrNoImage
	}
	s.Description = text
	s.Diagnosis = ""
	s.Translations = make(map[Stage]Translation)
	s.State = SessionDescriptionReady
	s.touch()
	return nil
}

// CanDiagnose сообщает, готово ли описание для текущего изображения
func (s *Session) CanDiagnose() bool {
	return s.HasImage() && s.Description != ""
}

// SetDiagnosis сохраняет диагноз
func (s *Session) SetDiagnosis(text string) error {
	if !s.HasImage() {
		return ErrNoImage
	}
	if s.Description == "" {
		return ErrDescriptionMissing
	}
	s.Diagnosis = text
	delete(s.Translations, StageDiagnose)
	s.State = SessionDiagnosisReady
	s.touch()
	return nil
}

// Text возвращает английский оригинал стадии
func (s *Session) Text(stage Stage) string {
	switch stage {
	case StageDescribe:
		return s.Description
	case StageDiagnose:
		return s.Diagnosis
	default:
		return ""
	}
}

// SetLanguage меняет язык отображения. Переводы на прежний язык отбрасываются.
func (s *Session) SetLanguage(language Language) {
	if language == s.Language {
		return
	}
	s.Language = language
	s.Translations = make(map[Stage]Translation)
	s.touch()
}

// SetTranslation сохраняет перевод, если он сделан на текущий язык сессии
func (s *Session) SetTranslation(stage Stage, tr Translation) bool {
	if tr.Language != s.Language || s.Text(stage) == "" {
		return false
	}
	s.Translations[stage] = tr
	s.touch()
	return true
}

// Translated сообщает, что хотя бы один текст показывается в переводе
func (s *Session) Translated() bool {
	for _, tr := range s.Translations {
		if !tr.Failed && tr.Language == s.Language {
			return true
		}
	}
	return false
}

// NeedsTranslation сообщает, нужно ли переводить текст стадии
func (s *Session) NeedsTranslation(stage Stage) bool {
	if s.Language.IsEnglish() || s.Text(stage) == "" {
		return false
	}
	tr, ok := s.Translations[stage]
	return !ok || tr.Failed || tr.Language != s.Language
}

// Displayed возвращает текст стадии для показа и предупреждение, если есть
func (s *Session) Displayed(stage Stage) (text, warning string) {
	original := s.Text(stage)
	if s.Language.IsEnglish() || original == "" {
		return original, ""
	}

	tr, ok := s.Translations[stage]
	if !ok || tr.Language != s.Language {
		return original, ""
	}
	if tr.Failed {
		return original, tr.Warning
	}
	return tr.Text, ""
}

// Clone возвращает независимую копию сессии
func (s *Session) Clone() *Session {
	c := *s
	if s.Image != nil {
		img := *s.Image
		c.Image = &img
	}
	c.Translations = make(map[Stage]Translation, len(s.Translations))
	for k, v := range s.Translations {
		c.Translations[k] = v
	}
	return &c
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
