package container

import (
	"time"

	"go.uber.org/zap"

	app "leaf-doctor/internal/application"
	"leaf-doctor/internal/domain/port"
	"leaf-doctor/internal/domain/prompt"
)

type Container struct {
	UserService         *app.UserService
	DiagnosisService    *app.DiagnosisService
	ConversationService *app.ConversationService
	Catalog             *prompt.Catalog
}

// Deps внешние зависимости приложения
type Deps struct {
	Users      port.UserRepository
	Sessions   port.SessionRepository
	Images     port.ImageStore
	Inference  port.InferenceClient
	Translator port.Translator
	Catalog    *prompt.Catalog
	Logger     *zap.Logger

	TranslateChunkSize int
	TranslateTimeout   time.Duration // на один фрагмент
}

func New(d Deps) *Container {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := d.Catalog
	if catalog == nil {
		catalog = prompt.Default()
	}

	var translations *app.TranslationService
	if d.Translator != nil {
		translations = app.NewTranslationService(d.Translator, d.TranslateChunkSize, d.TranslateTimeout, logger.Named("translation"))
	}

	userService := app.NewUserService(d.Users)
	diagnosisService := app.NewDiagnosisService(d.Sessions, d.Images, d.Inference, catalog, translations, logger.Named("diagnosis"))
	conversationService := app.NewConversationService(userService, diagnosisService)

	return &Container{
		UserService:         userService,
		DiagnosisService:    diagnosisService,
		ConversationService: conversationService,
		Catalog:             catalog,
	}
}
