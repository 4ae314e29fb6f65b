package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNoImage стадия вызвана до загрузки изображения, конвейер не запущен
	ErrNoImage            = errors.New("no image in session")
	ErrDescriptionMissing = errors.New("description is required before diagnosis")
	ErrUnsupportedImage   = errors.New("unsupported image format: only jpg, jpeg and png are accepted")
	ErrEmptyImage         = errors.New("image is empty")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionBusy        = errors.New("session is busy")
	ErrUnknownLanguage    = errors.New("unknown language")
)

// InferenceError ошибка обращения к модели на конкретной стадии
type InferenceError struct {
	Stage Stage
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed at %s stage: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// TranslationError ошибка перевода одного из фрагментов текста
type TranslationError struct {
	Language Language
	Chunk    int // номер фрагмента, начиная с нуля
	Err      error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation to %s failed at chunk %d: %v", e.Language.Name(), e.Chunk, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
