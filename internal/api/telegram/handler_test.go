package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"leaf-doctor/internal/container"
	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
	"leaf-doctor/internal/infrastructure/storage"
)

// fakeAPI запоминает отправленные сообщения и отдаёт файлы по заданному адресу
type fakeAPI struct {
	mu      sync.Mutex
	sent    []string
	fileURL string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg.Text)
	f.mu.Unlock()
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("no file")
	}
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// leafInference описывает лист, а по описанию ставит диагноз
type leafInference struct{}

func (leafInference) Infer(ctx context.Context, parts []port.Part) (string, error) {
	for _, p := range parts {
		if !p.IsImage() && strings.Contains(p.Text, "a green leaf") {
			return "healthy leaf", nil
		}
	}
	return "a green leaf", nil
}

type prefixTranslator struct{}

func (prefixTranslator) Translate(ctx context.Context, text string, target entity.Language) (string, error) {
	return target.Code() + ": " + text, nil
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()
	c := container.New(container.Deps{
		Users:      storage.NewMemoryUserRepository(entity.LanguageEnglish),
		Sessions:   storage.NewMemorySessionRepository(),
		Images:     storage.NewTempImageStore(t.TempDir(), nil, nil),
		Inference:  leafInference{},
		Translator: prefixTranslator{},
	})

	photos := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("leaf bytes"))
	}))
	t.Cleanup(photos.Close)

	api := &fakeAPI{fileURL: photos.URL}
	return newBot(api, c.ConversationService, c.Catalog, nil), api
}

func command(text string) *tgbotapi.Message {
	name, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func photo() *tgbotapi.Message {
	return &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 1},
		Chat:  &tgbotapi.Chat{ID: 10},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}
}

func TestBot_PhotoThenDiagnose(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, photo())
	sent := api.Sent()
	require.Equal(t, msgProcessing, sent[0])
	require.Equal(t, "🔎 What I see:\n\na green leaf", sent[1])
	require.Contains(t, sent[2], "/diagnose")

	bot.handleMessage(ctx, command("/diagnose"))
	sent = api.Sent()[3:]
	require.Equal(t, []string{msgDiagnosing, "🩺 Diagnosis:\n\nhealthy leaf"}, sent)
}

func TestBot_TranslateWithoutPhoto(t *testing.T) {
	bot, api := newTestBot(t)

	bot.handleMessage(context.Background(), command("/translate"))
	require.Equal(t, []string{msgNothingToShow}, api.Sent())
}

func TestBot_LanguageReplies(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	// без фото только подтверждение языка
	bot.handleMessage(ctx, command("/language ha"))
	require.Equal(t, []string{msgTranslating, "🌐 Language: Hausa"}, api.Sent())

	bot.handleMessage(ctx, command("/language en"))
	bot.handleMessage(ctx, photo())
	before := len(api.Sent())

	// с фото после подтверждения идёт переведённое описание
	bot.handleMessage(ctx, command("/language ha"))
	sent := api.Sent()[before:]
	require.Equal(t, msgTranslating, sent[0])
	require.Equal(t, "🌐 Language: Hausa", sent[1])
	require.Equal(t, "🔎 What I see:\n\nha: a green leaf", sent[2])
}

func TestBot_LanguageUsage(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/language"))
	bot.handleMessage(ctx, command("/language fr"))

	usage := "Usage: /language <code>. Available: en, ha"
	require.Equal(t, []string{usage, usage}, api.Sent())
}

func TestBot_UnsupportedDocument(t *testing.T) {
	bot, api := newTestBot(t)
	api.fileURL = ""

	bot.handleMessage(context.Background(), &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Document: &tgbotapi.Document{FileID: "doc", FileName: "leaf.gif"},
	})
	require.Equal(t, []string{msgUnsupported}, api.Sent())
}

func TestBot_ImageDocument(t *testing.T) {
	bot, api := newTestBot(t)

	bot.handleMessage(context.Background(), &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Document: &tgbotapi.Document{FileID: "doc", FileName: "Leaf.PNG"},
	})
	sent := api.Sent()
	require.Equal(t, msgProcessing, sent[0])
	require.Equal(t, "🔎 What I see:\n\na green leaf", sent[1])
}

func TestBot_DownloadFailure(t *testing.T) {
	bot, api := newTestBot(t)
	api.fileURL = ""

	bot.handleMessage(context.Background(), photo())
	require.Equal(t, []string{msgProcessing, msgProcessingError}, api.Sent())
}

func TestBot_TextAndUnknownCommand(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 10},
		Text: "hello",
	})
	bot.handleMessage(ctx, command("/frobnicate"))
	bot.handleMessage(ctx, command("/cancel"))
	require.Equal(t, []string{msgSendPhoto, msgUnknownCommand, msgCancelled}, api.Sent())
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, bot.Run(ctx))
}
