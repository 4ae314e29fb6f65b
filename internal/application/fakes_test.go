package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
	"leaf-doctor/internal/domain/prompt"
	"leaf-doctor/internal/infrastructure/storage"
)

const testPrompts = `
languages:
  en:
    describe: DESCRIBE
    diagnose: "DIAGNOSE: {description}"
  ha:
    translate: TRANSLATE-HA
`

type fakeInference struct {
	mu      sync.Mutex
	calls   [][]port.Part
	respond func(parts []port.Part) (string, error)
}

func (f *fakeInference) Infer(ctx context.Context, parts []port.Part) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, parts)
	f.mu.Unlock()
	return f.respond(parts)
}

func (f *fakeInference) Calls() [][]port.Part {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]port.Part(nil), f.calls...)
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, text string, target entity.Language) (string, error)
}

func (f *fakeTranslator) Translate(ctx context.Context, text string, target entity.Language) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, text, target)
	}
	return strings.ToUpper(target.Code()) + ":" + text, nil
}

func (f *fakeTranslator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// stageOf определяет стадию по тексту тестового промпта
func stageOf(parts []port.Part) entity.Stage {
	switch {
	case strings.HasPrefix(parts[0].Text, "DESCRIBE"):
		return entity.StageDescribe
	case strings.HasPrefix(parts[0].Text, "DIAGNOSE"):
		return entity.StageDiagnose
	default:
		return entity.StageTranslate
	}
}

type testEnv struct {
	svc        *DiagnosisService
	inference  *fakeInference
	translator *fakeTranslator
	sessions   *storage.MemorySessionRepository
	images     *storage.TempImageStore
}

func newTestEnv(t *testing.T, respond func(parts []port.Part) (string, error)) *testEnv {
	t.Helper()

	catalog, err := prompt.Parse([]byte(testPrompts))
	require.NoError(t, err)

	env := &testEnv{
		inference:  &fakeInference{respond: respond},
		translator: &fakeTranslator{},
		sessions:   storage.NewMemorySessionRepository(),
		images:     storage.NewTempImageStore(t.TempDir(), nil, nil),
	}
	translations := NewTranslationService(env.translator, 100, 0, nil)
	env.svc = NewDiagnosisService(env.sessions, env.images, env.inference, catalog, translations, nil)
	return env
}

func (e *testEnv) start(t *testing.T, language entity.Language) string {
	t.Helper()
	s, err := e.svc.StartSession(context.Background(), language)
	require.NoError(t, err)
	return s.ID
}

// echoBackend описывает изображение его байтами и ставит диагноз по описанию
func echoBackend(parts []port.Part) (string, error) {
	switch stageOf(parts) {
	case entity.StageDescribe:
		return "  description of " + string(parts[1].Data) + "\n", nil
	case entity.StageDiagnose:
		return "diagnosis for " + strings.TrimPrefix(parts[0].Text, "DIAGNOSE: "), nil
	}
	return "", nil
}
