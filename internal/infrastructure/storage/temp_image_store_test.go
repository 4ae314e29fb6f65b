package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-doctor/internal/domain/entity"
)

type upperNormalizer struct {
	err error
}

func (n upperNormalizer) Normalize(data []byte) ([]byte, error) {
	if n.err != nil {
		return nil, n.err
	}
	return bytes.ToUpper(data), nil
}

func TestTempImageStore_SaveLoadRemove(t *testing.T) {
	store := NewTempImageStore(t.TempDir(), nil, nil)
	ctx := context.Background()

	h, err := store.Save(ctx, []byte("leaf"), "photo.PNG")
	require.NoError(t, err)
	require.Equal(t, entity.MIMETypeJPEG, h.MIMEType)
	require.Equal(t, int64(4), h.Size)

	data, err := store.Load(ctx, h)
	require.NoError(t, err)
	require.Equal(t, []byte("leaf"), data)

	require.NoError(t, store.Remove(ctx, h))
	_, err = os.Stat(h.Path)
	require.True(t, os.IsNotExist(err))

	// повторное удаление не ошибка
	require.NoError(t, store.Remove(ctx, h))
	require.NoError(t, store.Remove(ctx, nil))
}

func TestTempImageStore_UniqueLocations(t *testing.T) {
	store := NewTempImageStore(t.TempDir(), nil, nil)
	ctx := context.Background()

	a, err := store.Save(ctx, []byte("a"), "a.jpg")
	require.NoError(t, err)
	b, err := store.Save(ctx, []byte("a"), "a.jpg")
	require.NoError(t, err)

	require.NotEqual(t, a.Path, b.Path)
	require.NotEqual(t, a.ID, b.ID)
}

func TestTempImageStore_ExtensionFilter(t *testing.T) {
	store := NewTempImageStore(t.TempDir(), nil, nil)
	ctx := context.Background()

	for _, name := range []string{"leaf.gif", "leaf", "leaf.jpg.exe", "leaf.webp"} {
		_, err := store.Save(ctx, []byte("x"), name)
		require.ErrorIs(t, err, entity.ErrUnsupportedImage, name)
	}

	_, err := store.Save(ctx, nil, "leaf.jpeg")
	require.ErrorIs(t, err, entity.ErrEmptyImage)
}

func TestTempImageStore_Normalizer(t *testing.T) {
	ctx := context.Background()

	store := NewTempImageStore(t.TempDir(), upperNormalizer{}, nil)
	h, err := store.Save(ctx, []byte("leaf"), "leaf.png")
	require.NoError(t, err)
	data, err := store.Load(ctx, h)
	require.NoError(t, err)
	require.Equal(t, []byte("LEAF"), data)

	// неудачная перекодировка не отклоняет изображение
	failing := NewTempImageStore(t.TempDir(), upperNormalizer{err: errors.New("bad image")}, nil)
	h, err = failing.Save(ctx, []byte("not really a png"), "leaf.png")
	require.NoError(t, err)
	require.Equal(t, entity.MIMETypeJPEG, h.MIMEType)
	data, err = failing.Load(ctx, h)
	require.NoError(t, err)
	require.Equal(t, []byte("not really a png"), data)
}
