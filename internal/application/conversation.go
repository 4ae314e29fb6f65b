package app

import (
	"context"
	"errors"

	"leaf-doctor/internal/domain/entity"
)

// ConversationService связывает пользователя чата с его сессией диагностики.
// Действия одного пользователя выполняются по очереди.
type ConversationService struct {
	users     *UserService
	diagnosis *DiagnosisService
	locks     *gates[int64]
}

// NewConversationService создаёт сервис диалога
func NewConversationService(users *UserService, diagnosis *DiagnosisService) *ConversationService {
	return &ConversationService{users: users, diagnosis: diagnosis, locks: newGates[int64]()}
}

// AcceptPhoto принимает фото листа, начинает новую сессию и сразу получает описание
func (s *ConversationService) AcceptPhoto(ctx context.Context, userID, chatID int64, photo []byte, filename string) (*SessionView, error) {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}
	// Возвращаем пользователя в главное меню при любом исходе
	defer s.users.SetState(ctx, userID, chatID, entity.StateMainMenu)

	sessionID, err := s.sessionFor(ctx, user)
	if err != nil {
		return nil, err
	}

	session, err := s.diagnosis.Submit(ctx, sessionID, photo, filename)
	if session == nil {
		return nil, err
	}
	return NewSessionView(session), err
}

// ConfirmDiagnosis запускает диагноз по явной команде пользователя
func (s *ConversationService) ConfirmDiagnosis(ctx context.Context, userID, chatID int64) (*SessionView, error) {
	return s.run(ctx, userID, chatID, s.diagnosis.Diagnose)
}

// Translate переводит результаты на язык пользователя
func (s *ConversationService) Translate(ctx context.Context, userID, chatID int64) (*SessionView, error) {
	return s.run(ctx, userID, chatID, s.diagnosis.Translate)
}

// ChangeLanguage меняет язык пользователя и его текущей сессии
func (s *ConversationService) ChangeLanguage(ctx context.Context, userID, chatID int64, language entity.Language) (*SessionView, error) {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.users.SetLanguage(ctx, userID, chatID, language)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.sessionFor(ctx, user)
	if err != nil {
		return nil, err
	}
	session, err := s.diagnosis.SetLanguage(ctx, sessionID, language)
	if session == nil {
		return nil, err
	}
	return NewSessionView(session), err
}

// BeginCheck закрывает прежнюю сессию и ждёт новое фото
func (s *ConversationService) BeginCheck(ctx context.Context, userID, chatID int64) error {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.closeSession(ctx, userID, chatID); err != nil {
		return err
	}
	_, err = s.users.BeginCheck(ctx, userID, chatID)
	return err
}

// Cancel закрывает сессию пользователя и возвращает его в главное меню
func (s *ConversationService) Cancel(ctx context.Context, userID, chatID int64) error {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.closeSession(ctx, userID, chatID); err != nil {
		return err
	}
	_, err = s.users.Cancel(ctx, userID, chatID)
	return err
}

func (s *ConversationService) closeSession(ctx context.Context, userID, chatID int64) error {
	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return err
	}

	if user.SessionID != "" {
		if err := s.diagnosis.Close(ctx, user.SessionID); err != nil && !errors.Is(err, entity.ErrSessionNotFound) {
			return err
		}
	}

	user.BindSession("")
	return s.users.Save(ctx, user)
}

func (s *ConversationService) run(ctx context.Context, userID, chatID int64, op func(context.Context, string) (*entity.Session, error)) (*SessionView, error) {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	sessionID, err := s.sessionFor(ctx, user)
	if err != nil {
		return nil, err
	}

	session, err := op(ctx, sessionID)
	if session == nil {
		return nil, err
	}
	return NewSessionView(session), err
}

// sessionFor возвращает живую сессию пользователя, создаёт новую при необходимости
func (s *ConversationService) sessionFor(ctx context.Context, user *entity.User) (string, error) {
	if user.SessionID != "" {
		_, err := s.diagnosis.Get(ctx, user.SessionID)
		if err == nil {
			return user.SessionID, nil
		}
		if !errors.Is(err, entity.ErrSessionNotFound) {
			return "", err
		}
	}

	session, err := s.diagnosis.StartSession(ctx, user.Language)
	if err != nil {
		return "", err
	}
	user.BindSession(session.ID)
	if err := s.users.Save(ctx, user); err != nil {
		return "", err
	}
	return session.ID, nil
}
