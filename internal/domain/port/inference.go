package port

import "context"

// Part часть запроса к модели: текст или изображение
type Part struct {
	Text     string
	MIMEType string // задан только для изображения
	Data     []byte
}

// TextPart создаёт текстовую часть запроса
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart создаёт часть запроса с изображением
func ImagePart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// IsImage сообщает, что часть содержит изображение
func (p Part) IsImage() bool {
	return p.MIMEType != ""
}

// InferenceClient интерфейс мультимодальной модели
type InferenceClient interface {
	// Infer отправляет части запроса и возвращает текст ответа без окружающих пробелов
	Infer(ctx context.Context, parts []Part) (string, error)
}
