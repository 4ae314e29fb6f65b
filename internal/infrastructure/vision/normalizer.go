package vision

import (
	"bytes"

	"leaf-doctor/internal/domain/port"
)

// DefaultJPEGQuality качество перекодирования по умолчанию
const DefaultJPEGQuality = 90

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// Normalizer перекодирует входные изображения в JPEG, чтобы
// объявленный модели тип image/jpeg соответствовал содержимому.
type Normalizer struct {
	Quality int
}

// NewNormalizer создаёт нормализатор с заданным качеством JPEG
func NewNormalizer(quality int) *Normalizer {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Normalizer{Quality: quality}
}

// isJPEG проверяет сигнатуру JPEG
func isJPEG(data []byte) bool {
	return bytes.HasPrefix(data, jpegMagic)
}

// Проверка реализации интерфейса
var _ port.ImageNormalizer = (*Normalizer)(nil)
