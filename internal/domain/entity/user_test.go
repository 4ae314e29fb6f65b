package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser_DefaultState(t *testing.T) {
	u := NewUser(1, 10)
	require.Equal(t, StateMainMenu, u.State)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, int64(10), u.ChatID)
	require.Equal(t, LanguageEnglish, u.Language)
	require.Empty(t, u.SessionID)
}

func TestUser_BindSessionAndLanguage(t *testing.T) {
	u := NewUser(1, 10)
	u.BindSession("abc")
	u.SetLanguage(LanguageHausa)
	require.Equal(t, "abc", u.SessionID)
	require.Equal(t, LanguageHausa, u.Language)
}
