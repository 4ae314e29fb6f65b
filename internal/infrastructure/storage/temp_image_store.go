package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
)

// allowedExtensions расширения, которые принимает приём изображений
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// TempImageStore хранит изображения во временных файлах
type TempImageStore struct {
	dir        string
	normalizer port.ImageNormalizer
	logger     *zap.Logger
}

// NewTempImageStore создаёт хранилище в каталоге dir.
// normalizer может быть nil, тогда байты сохраняются как есть.
func NewTempImageStore(dir string, normalizer port.ImageNormalizer, logger *zap.Logger) *TempImageStore {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TempImageStore{dir: dir, normalizer: normalizer, logger: logger}
}

// AllowedExtension проверяет расширение имени файла
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Save записывает изображение в новый временный файл
func (s *TempImageStore) Save(ctx context.Context, data []byte, filename string) (*entity.ImageHandle, error) {
	if !AllowedExtension(filename) {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedImage, filename)
	}
	if len(data) == 0 {
		return nil, entity.ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.normalizer != nil {
		// Содержимое не проверяется: что не удалось перекодировать, сохраняется как есть
		normalized, err := s.normalizer.Normalize(data)
		if err != nil {
			s.logger.Warn("Image normalization failed, keeping original bytes",
				zap.String("filename", filename),
				zap.Error(err))
		} else {
			data = normalized
		}
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	id := uuid.NewString()
	f, err := os.CreateTemp(s.dir, "leaf-"+id+"-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	return &entity.ImageHandle{
		ID:       id,
		Path:     f.Name(),
		MIMEType: entity.MIMETypeJPEG,
		Size:     int64(len(data)),
	}, nil
}

// Load читает байты изображения
func (s *TempImageStore) Load(ctx context.Context, handle *entity.ImageHandle) ([]byte, error) {
	if handle == nil {
		return nil, entity.ErrNoImage
	}
	data, err := os.ReadFile(handle.Path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Remove удаляет временный файл
func (s *TempImageStore) Remove(ctx context.Context, handle *entity.ImageHandle) error {
	if handle == nil {
		return nil
	}
	if err := os.Remove(handle.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.ImageStore = (*TempImageStore)(nil)
