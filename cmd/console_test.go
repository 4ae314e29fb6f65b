package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-doctor/internal/container"
	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
	"leaf-doctor/internal/infrastructure/storage"
)

type scriptedInference struct {
	replies []string
}

func (s *scriptedInference) Infer(ctx context.Context, parts []port.Part) (string, error) {
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type prefixTranslator struct{}

func (prefixTranslator) Translate(ctx context.Context, text string, target entity.Language) (string, error) {
	return target.Code() + ": " + text, nil
}

func newConsole(t *testing.T, replies ...string) (*console, *bytes.Buffer) {
	t.Helper()
	c := container.New(container.Deps{
		Users:      storage.NewMemoryUserRepository(entity.LanguageEnglish),
		Sessions:   storage.NewMemorySessionRepository(),
		Images:     storage.NewTempImageStore(t.TempDir(), nil, nil),
		Inference:  &scriptedInference{replies: replies},
		Translator: prefixTranslator{},
	})
	session, err := c.DiagnosisService.StartSession(context.Background(), entity.LanguageEnglish)
	require.NoError(t, err)

	var out bytes.Buffer
	return &console{diagnosis: c.DiagnosisService, catalog: c.Catalog, sessionID: session.ID, out: &out}, &out
}

func TestConsole_Flow(t *testing.T) {
	con, out := newConsole(t, "a leaf with white powder", "powdery mildew")
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "leaf.jpg")
	require.NoError(t, os.WriteFile(path, []byte("leaf"), 0o600))

	quit, err := con.exec(ctx, "load "+path)
	require.NoError(t, err)
	require.False(t, quit)
	require.Contains(t, out.String(), "a leaf with white powder")
	require.Contains(t, out.String(), "Type diagnose")

	out.Reset()
	_, err = con.exec(ctx, "diagnose")
	require.NoError(t, err)
	require.Contains(t, out.String(), "powdery mildew")

	out.Reset()
	_, err = con.exec(ctx, "lang ha")
	require.NoError(t, err)
	require.Contains(t, out.String(), "ha: powdery mildew")
	require.Contains(t, out.String(), "Hausa")

	quit, err = con.exec(ctx, "quit")
	require.NoError(t, err)
	require.True(t, quit)
}

func TestConsole_Errors(t *testing.T) {
	con, out := newConsole(t)
	ctx := context.Background()

	_, err := con.exec(ctx, "load")
	require.Error(t, err)

	_, err = con.exec(ctx, "lang !!")
	require.ErrorIs(t, err, entity.ErrUnknownLanguage)

	_, err = con.exec(ctx, "lang fr")
	require.ErrorIs(t, err, entity.ErrUnknownLanguage)

	_, err = con.exec(ctx, "help")
	require.NoError(t, err)
	require.Contains(t, out.String(), "switch language (en, ha)")

	_, err = con.exec(ctx, "frobnicate")
	require.Error(t, err)

	// без фото диагноз ничего не делает
	_, err = con.exec(ctx, "diagnose")
	require.NoError(t, err)
	require.Contains(t, out.String(), "No photo loaded.")

	quit, err := con.exec(ctx, "   ")
	require.NoError(t, err)
	require.False(t, quit)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn", false)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(-1))

	l, err = newLogger("warn", true)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(-1))

	_, err = newLogger("loud", false)
	require.Error(t, err)
}
