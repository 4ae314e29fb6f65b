package googletranslate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"leaf-doctor/internal/domain/entity"
)

func newTestTranslator(t *testing.T, handler http.HandlerFunc) *Translator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr, err := NewTranslator(context.Background(), "test-key", option.WithEndpoint(srv.URL+"/language/translate/"))
	require.NoError(t, err)
	return tr
}

func requestValues(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	values := r.URL.Query()
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if form, err := url.ParseQuery(string(raw)); err == nil {
			for k, v := range form {
				values[k] = append(values[k], v...)
			}
		}
	}
	return values
}

func TestTranslator_Translate(t *testing.T) {
	var got url.Values
	tr := newTestTranslator(t, func(w http.ResponseWriter, r *http.Request) {
		got = requestValues(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"translations":[{"translatedText":"Ganye yana da lafiya &amp; kore","detectedSourceLanguage":"en"}]}}`)
	})

	out, err := tr.Translate(context.Background(), "The leaf is healthy & green", entity.LanguageHausa)
	require.NoError(t, err)
	require.Equal(t, "Ganye yana da lafiya & kore", out)

	require.Equal(t, "ha", got.Get("target"))
	require.Equal(t, "The leaf is healthy & green", got.Get("q"))
	require.Empty(t, got.Get("source"))
}

func TestTranslator_Error(t *testing.T) {
	tr := newTestTranslator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API key not valid"}}`)
	})

	_, err := tr.Translate(context.Background(), "text", entity.LanguageHausa)
	require.Error(t, err)
}

func TestNewTranslator_RequiresKey(t *testing.T) {
	_, err := NewTranslator(context.Background(), " ")
	require.Error(t, err)
}
