package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"leaf-doctor/config"
	"leaf-doctor/internal/container"
	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
	"leaf-doctor/internal/domain/prompt"
	"leaf-doctor/internal/infrastructure/gemini"
	"leaf-doctor/internal/infrastructure/googletranslate"
	"leaf-doctor/internal/infrastructure/storage"
	"leaf-doctor/internal/infrastructure/vision"
)

// buildContainer собирает сервисы приложения по конфигу
func buildContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*container.Container, entity.Language, error) {
	defaultLanguage, err := entity.ParseLanguage(cfg.DefaultLanguage)
	if err != nil {
		return nil, "", fmt.Errorf("DEFAULT_LANGUAGE: %w", err)
	}

	catalog := prompt.Default()
	if cfg.PromptsFile != "" {
		catalog, err = prompt.LoadFile(cfg.PromptsFile)
		if err != nil {
			return nil, "", fmt.Errorf("load prompts: %w", err)
		}
	}

	// Клиент модели создаётся один раз на процесс
	client, err := gemini.NewClient(ctx, gemini.DefaultSettings(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.InferenceTimeout), logger.Named("gemini"))
	if err != nil {
		return nil, "", fmt.Errorf("create gemini client: %w", err)
	}

	var translator port.Translator
	switch cfg.TranslateBackend {
	case config.TranslateBackendGoogle:
		translator, err = googletranslate.NewTranslator(ctx, cfg.GoogleTranslateAPIKey)
		if err != nil {
			return nil, "", fmt.Errorf("create google translator: %w", err)
		}
	default:
		translator = gemini.NewPromptTranslator(client, catalog)
	}

	var normalizer port.ImageNormalizer
	if cfg.NormalizeImages {
		normalizer = vision.NewNormalizer(vision.DefaultJPEGQuality)
	}

	c := container.New(container.Deps{
		Users:              storage.NewMemoryUserRepository(defaultLanguage),
		Sessions:           storage.NewMemorySessionRepository(),
		Images:             storage.NewTempImageStore(cfg.ImageDir, normalizer, logger.Named("images")),
		Inference:          client,
		Translator:         translator,
		Catalog:            catalog,
		Logger:             logger,
		TranslateChunkSize: cfg.TranslateChunkSize,
		TranslateTimeout:   cfg.InferenceTimeout,
	})

	logger.Info("Application configured",
		zap.String("model", cfg.GeminiModel),
		zap.String("translate_backend", cfg.TranslateBackend),
		zap.String("default_language", defaultLanguage.Code()),
		zap.Bool("normalize_images", cfg.NormalizeImages))

	return c, defaultLanguage, nil
}
