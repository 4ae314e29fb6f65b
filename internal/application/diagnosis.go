package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
	"leaf-doctor/internal/domain/prompt"
)

// translationWarning показывается вместо перевода, если он не удался
const translationWarning = "Translation is unavailable right now, showing the English text."

// DiagnosisService ведёт сессию по шагам: изображение, описание, диагноз, перевод.
// Операции одной сессии выполняются строго по очереди.
type DiagnosisService struct {
	sessions     port.SessionRepository
	images       port.ImageStore
	inference    port.InferenceClient
	catalog      *prompt.Catalog
	translations *TranslationService
	logger       *zap.Logger

	gates *gates[string]
}

// NewDiagnosisService создаёт оркестратор конвейера.
// translations может быть nil, тогда перевод всегда помечается неудачным.
func NewDiagnosisService(
	sessions port.SessionRepository,
	images port.ImageStore,
	inference port.InferenceClient,
	catalog *prompt.Catalog,
	translations *TranslationService,
	logger *zap.Logger,
) *DiagnosisService {
	if catalog == nil {
		catalog = prompt.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosisService{
		sessions:     sessions,
		images:       images,
		inference:    inference,
		catalog:      catalog,
		translations: translations,
		logger:       logger,
		gates:        newGates[string](),
	}
}

// StartSession создаёт новую пустую сессию
func (s *DiagnosisService) StartSession(ctx context.Context, language entity.Language) (*entity.Session, error) {
	session, err := s.sessions.Create(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("Session started", zap.String("session", session.ID), zap.String("language", session.Language.Code()))
	return session, nil
}

// Get возвращает сессию
func (s *DiagnosisService) Get(ctx context.Context, id string) (*entity.Session, error) {
	return s.sessions.Get(ctx, id)
}

// View возвращает то, что показывается пользователю
func (s *DiagnosisService) View(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewSessionView(session), nil
}

// Acquire сохраняет новое изображение и начинает сессию заново
func (s *DiagnosisService) Acquire(ctx context.Context, id string, data []byte, filename string) (*entity.Session, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.acquire(ctx, id, data, filename)
}

// Submit сохраняет изображение и сразу запускает описание.
// При ошибке описания сессия остаётся с новым изображением.
func (s *DiagnosisService) Submit(ctx context.Context, id string, data []byte, filename string) (*entity.Session, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.acquire(ctx, id, data, filename)
	if err != nil {
		return nil, err
	}
	if err := s.describe(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// Describe описывает текущее изображение. Без изображения ничего не делает.
func (s *DiagnosisService) Describe(ctx context.Context, id string) (*entity.Session, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.describe(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// Diagnose ставит диагноз по сохранённому описанию и тому же изображению.
// Вызывается только явным действием пользователя.
func (s *DiagnosisService) Diagnose(ctx context.Context, id string) (*entity.Session, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.HasImage() {
		return session, nil
	}
	if !session.CanDiagnose() {
		return session, entity.ErrDescriptionMissing
	}

	tpl, err := s.catalog.Template(entity.StageDiagnose, session.Language)
	if err != nil {
		return session, err
	}
	data, err := s.images.Load(ctx, session.Image)
	if err != nil {
		return session, err
	}

	text, err := s.infer(ctx, session, entity.StageDiagnose, []port.Part{
		port.TextPart(tpl.Render(session.Description)),
		port.ImagePart(session.Image.MIMEType, data),
	})
	if err != nil {
		return session, err
	}

	if err := session.SetDiagnosis(text); err != nil {
		return session, err
	}
	s.translateOutputs(ctx, session)

	if err := s.sessions.Save(ctx, session); err != nil {
		return session, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Translate переводит готовые тексты на язык сессии.
// Неудача перевода не ошибка: сессия хранит пометку и показывает английский текст.
func (s *DiagnosisService) Translate(ctx context.Context, id string) (*entity.Session, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.translateOutputs(ctx, session) {
		return session, nil
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return session, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SetLanguage меняет язык отображения и переводит уже готовые тексты
func (s *DiagnosisService) SetLanguage(ctx context.Context, id string, language entity.Language) (*entity.Session, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.SetLanguage(language)
	s.translateOutputs(ctx, session)

	if err := s.sessions.Save(ctx, session); err != nil {
		return session, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Close удаляет изображение и сессию
func (s *DiagnosisService) Close(ctx context.Context, id string) error {
	release, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.images.Remove(ctx, session.Image); err != nil {
		s.logger.Warn("Failed to remove image", zap.String("session", id), zap.Error(err))
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Session closed", zap.String("session", id))
	return nil
}

func (s *DiagnosisService) acquire(ctx context.Context, id string, data []byte, filename string) (*entity.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	handle, err := s.images.Save(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	previous := session.Acquire(handle)
	if err := s.sessions.Save(ctx, session); err != nil {
		_ = s.images.Remove(ctx, handle)
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := s.images.Remove(ctx, previous); err != nil {
		s.logger.Warn("Failed to remove previous image", zap.String("session", id), zap.Error(err))
	}

	s.logger.Info("Image acquired",
		zap.String("session", id),
		zap.String("image", handle.ID),
		zap.Int64("size", handle.Size))
	return session, nil
}

func (s *DiagnosisService) describe(ctx context.Context, session *entity.Session) error {
	if !session.HasImage() {
		// конвейер ещё не запущен
		return nil
	}

	tpl, err := s.catalog.Template(entity.StageDescribe, session.Language)
	if err != nil {
		return err
	}
	data, err := s.images.Load(ctx, session.Image)
	if err != nil {
		return err
	}

	text, err := s.infer(ctx, session, entity.StageDescribe, []port.Part{
		port.TextPart(tpl.String()),
		port.ImagePart(session.Image.MIMEType, data),
	})
	if err != nil {
		return err
	}

	if err := session.SetDescription(text); err != nil {
		return err
	}
	s.translateOutputs(ctx, session)

	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// infer вызывает модель. Начатый вызов не отменяется вместе с запросом
// пользователя, ограничен только таймаутом клиента.
func (s *DiagnosisService) infer(ctx context.Context, session *entity.Session, stage entity.Stage, parts []port.Part) (string, error) {
	text, err := s.inference.Infer(context.WithoutCancel(ctx), parts)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errors.New("empty response")
		}
	}
	if err != nil {
		s.logger.Error("Inference failed",
			zap.String("session", session.ID),
			zap.String("stage", string(stage)),
			zap.Error(err))
		return "", &entity.InferenceError{Stage: stage, Err: err}
	}

	s.logger.Info("Stage completed",
		zap.String("session", session.ID),
		zap.String("stage", string(stage)),
		zap.Int("response_len", len(text)))
	return text, nil
}

// translateOutputs переводит тексты, которым нужен перевод. Возвращает true, если сессия изменилась.
func (s *DiagnosisService) translateOutputs(ctx context.Context, session *entity.Session) bool {
	changed := false
	for _, stage := range []entity.Stage{entity.StageDescribe, entity.StageDiagnose} {
		if !session.NeedsTranslation(stage) {
			continue
		}

		tr := entity.Translation{Language: session.Language}
		text, err := s.translate(ctx, session.Text(stage), session.Language)
		if err != nil {
			s.logger.Warn("Translation failed, showing English text",
				zap.String("session", session.ID),
				zap.String("stage", string(stage)),
				zap.Error(err))
			tr.Failed = true
			tr.Warning = translationWarning
		} else {
			tr.Text = text
		}

		if session.SetTranslation(stage, tr) {
			changed = true
		}
	}
	return changed
}

func (s *DiagnosisService) translate(ctx context.Context, text string, language entity.Language) (string, error) {
	if s.translations == nil {
		return "", &entity.TranslationError{Language: language, Err: errors.New("translation is not configured")}
	}
	return s.translations.Translate(context.WithoutCancel(ctx), text, language)
}

// lock занимает сессию. Ожидание прерывается контекстом.
func (s *DiagnosisService) lock(ctx context.Context, id string) (func(), error) {
	return s.gates.lock(ctx, id)
}
