package port

import (
	"context"

	"leaf-doctor/internal/domain/entity"
)

// ImageStore интерфейс временного хранилища изображений
type ImageStore interface {
	// Save сохраняет изображение в новое место и возвращает ссылку на него
	Save(ctx context.Context, data []byte, filename string) (*entity.ImageHandle, error)

	// Load читает байты изображения
	Load(ctx context.Context, handle *entity.ImageHandle) ([]byte, error)

	// Remove удаляет изображение, отсутствие файла не ошибка
	Remove(ctx context.Context, handle *entity.ImageHandle) error
}

// ImageNormalizer приводит изображение к JPEG
type ImageNormalizer interface {
	Normalize(data []byte) ([]byte, error)
}
