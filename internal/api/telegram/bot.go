package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	app "leaf-doctor/internal/application"
	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/prompt"
	"leaf-doctor/internal/infrastructure/storage"
)

const (
	msgStart = `👋 Hello! I help farmers find out what is wrong with their plants.

📸 Send me a clear photo of a single leaf and I will describe it.
Then send /diagnose to get a diagnosis and treatment advice.

📋 Commands:
/check — start a new check
/diagnose — diagnose the last photo
/translate — translate the results
/language en|ha — choose English or Hausa
/help — help
/cancel — forget the current photo`

	msgHelp = `ℹ️ How to use the bot:

1️⃣ Send a photo of the leaf (JPG or PNG)
2️⃣ Check the description of what the bot sees
3️⃣ Send /diagnose to get the diagnosis

💡 Tips:
• Take the photo in good daylight
• Fill the frame with one leaf
• Keep the photo sharp

📋 Commands:
/check — start a new check
/language en|ha — choose English or Hausa
/cancel — forget the current photo`

	msgAwaitingPhoto    = "📸 Send a photo of the leaf to check."
	msgCancelled        = "❌ Done. Send /check to start a new check."
	msgSendPhoto        = "📸 Please send a photo of the leaf."
	msgUnknownCommand   = "❓ Unknown command. Use /help for help."
	msgProcessing       = "⏳ Looking at the photo..."
	msgDiagnosing       = "⏳ Preparing the diagnosis..."
	msgTranslating      = "⏳ Translating..."
	msgNoPhoto          = "📸 Send a photo of the leaf first."
	msgNoDescription    = "⏳ The photo has not been described yet. Please send it again."
	msgUnsupported      = "⚠️ Only JPG and PNG images are supported."
	msgBusy             = "⏳ Still working on your previous request, please wait."
	msgProcessingError  = "⚠️ Could not analyse the image. Please try again or take another photo."
	msgTranslationError = "⚠️ Translation is unavailable right now, showing the English text."
	msgLanguageUsage    = "Usage: /language <code>. Available: %s"
	msgNothingToShow    = "Nothing to translate yet. Send a photo first."

	// maxMessageLen лимит длины сообщения Telegram с запасом
	maxMessageLen = 4000
	// maxConcurrentUpdates сколько сообщений обрабатывается одновременно
	maxConcurrentUpdates = 8
)

// botAPI часть Telegram API, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api          botAPI
	conversation *app.ConversationService
	catalog      *prompt.Catalog
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, conversation *app.ConversationService, catalog *prompt.Catalog, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	return newBot(api, conversation, catalog, logger), nil
}

func newBot(api botAPI, conversation *app.ConversationService, catalog *prompt.Catalog, logger *zap.Logger) *Bot {
	if catalog == nil {
		catalog = prompt.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:          api,
		conversation: conversation,
		catalog:      catalog,
		httpClient:   http.DefaultClient,
		logger:       logger,
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUpdates)

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			g.Go(func() error {
				b.handleMessage(gctx, msg)
				return nil
			})
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg, photo.FileID, "photo.jpg")
		return
	}

	// Изображение, отправленное файлом
	if msg.Document != nil {
		if !storage.AllowedExtension(msg.Document.FileName) {
			b.sendMessage(msg.Chat.ID, msgUnsupported)
			return
		}
		b.handleImage(ctx, msg, msg.Document.FileID, msg.Document.FileName)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		if err := b.conversation.BeginCheck(ctx, userID, chatID); err != nil {
			b.logger.Error("Failed to reset session", zap.Int64("user", userID), zap.Error(err))
		}
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "diagnose":
		b.sendMessage(chatID, msgDiagnosing)
		view, err := b.conversation.ConfirmDiagnosis(ctx, userID, chatID)
		b.replyWithStage(chatID, view, err, entity.StageDiagnose)

	case "translate":
		view, err := b.conversation.Translate(ctx, userID, chatID)
		if err == nil && view != nil && view.State == entity.SessionIdle {
			b.sendMessage(chatID, msgNothingToShow)
			return
		}
		b.replyWithAll(chatID, view, err)

	case "language":
		language, err := entity.ParseLanguage(msg.CommandArguments())
		if err != nil || !b.catalog.Supports(language) {
			b.sendMessage(chatID, fmt.Sprintf(msgLanguageUsage, languageCodes(b.catalog.Languages())))
			return
		}
		if !language.IsEnglish() {
			b.sendMessage(chatID, msgTranslating)
		}
		view, err := b.conversation.ChangeLanguage(ctx, userID, chatID, language)
		if err == nil {
			b.sendMessage(chatID, fmt.Sprintf("🌐 Language: %s", language.Name()))
		}
		if err != nil || (view != nil && view.State != entity.SessionIdle) {
			b.replyWithAll(chatID, view, err)
		}

	case "cancel":
		if err := b.conversation.Cancel(ctx, userID, chatID); err != nil {
			b.logger.Error("Failed to cancel session", zap.Int64("user", userID), zap.Error(err))
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleImage скачивает изображение и запускает описание
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID, filename string) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("Error downloading photo", zap.Int64("user", msg.From.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	b.logger.Debug("Received image", zap.Int64("user", msg.From.ID), zap.Int("bytes", len(imageData)))

	view, err := b.conversation.AcceptPhoto(ctx, msg.From.ID, msg.Chat.ID, imageData, path.Base(filename))
	b.replyWithStage(msg.Chat.ID, view, err, entity.StageDescribe)
}

// replyWithStage отправляет результат одной стадии или ошибку
func (b *Bot) replyWithStage(chatID int64, view *app.SessionView, err error, stage entity.Stage) {
	if err != nil {
		b.logger.Warn("Stage failed", zap.String("stage", string(stage)), zap.Error(err))
		b.sendMessage(chatID, errorMessage(err))
		return
	}
	for _, text := range formatStage(view, stage) {
		b.sendMessage(chatID, text)
	}
}

// replyWithAll отправляет все готовые результаты сессии
func (b *Bot) replyWithAll(chatID int64, view *app.SessionView, err error) {
	if err != nil {
		b.sendMessage(chatID, errorMessage(err))
		return
	}
	for _, stage := range []entity.Stage{entity.StageDescribe, entity.StageDiagnose} {
		for _, text := range formatStage(view, stage) {
			b.sendMessage(chatID, text)
		}
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение, длинный текст делится на части
func (b *Bot) sendMessage(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("Error sending message", zap.Int64("chat", chatID), zap.Error(err))
		}
	}
}

// formatStage готовит сообщения с результатом стадии
func formatStage(view *app.SessionView, stage entity.Stage) []string {
	if view == nil {
		return nil
	}

	var out []string
	switch stage {
	case entity.StageDescribe:
		if view.State == entity.SessionIdle {
			return []string{msgNoPhoto}
		}
		if view.DisplayDescription == "" {
			return nil
		}
		out = append(out, "🔎 What I see:\n\n"+view.DisplayDescription)
		if view.Diagnosis == "" {
			out = append(out, "Send /diagnose to get the diagnosis.")
		}
	case entity.StageDiagnose:
		if view.State == entity.SessionIdle {
			return []string{msgNoPhoto}
		}
		if view.DisplayDiagnosis == "" {
			return nil
		}
		out = append(out, "🩺 Diagnosis:\n\n"+view.DisplayDiagnosis)
	}

	if len(view.Warnings) > 0 {
		out = append(out, msgTranslationError)
	}
	return out
}

// errorMessage переводит ошибку в сообщение для пользователя
func errorMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrUnsupportedImage), errors.Is(err, entity.ErrEmptyImage):
		return msgUnsupported
	case errors.Is(err, entity.ErrDescriptionMissing):
		return msgNoDescription
	case errors.Is(err, entity.ErrSessionBusy):
		return msgBusy
	default:
		return msgProcessingError
	}
}

// splitMessage делит текст на части не длиннее limit рун, по возможности по строкам
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		if i := lastIndexRune(runes[:limit], '\n'); i > 0 {
			cut = i
		}
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// languageCodes перечисляет коды языков через запятую
func languageCodes(languages []entity.Language) string {
	codes := make([]string, 0, len(languages))
	for _, l := range languages {
		codes = append(codes, l.Code())
	}
	return strings.Join(codes, ", ")
}
