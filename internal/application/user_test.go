package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/infrastructure/storage"
)

func TestUserService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository(entity.LanguageEnglish)
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository(entity.LanguageEnglish)
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateProcessing)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)
}

func TestUserService_SetLanguage(t *testing.T) {
	repo := storage.NewMemoryUserRepository(entity.LanguageEnglish)
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.SetLanguage(ctx, 3, 30, entity.LanguageHausa)
	require.NoError(t, err)

	user, err := svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, entity.LanguageHausa, user.Language)
}
