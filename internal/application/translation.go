package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/port"
)

const (
	DefaultChunkSize    = 4500
	DefaultChunkTimeout = 30 * time.Second
)

// TranslationService переводит длинные тексты по фрагментам
type TranslationService struct {
	translator port.Translator
	chunkSize  int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewTranslationService создаёт сервис перевода. Таймаут действует на каждый фрагмент.
func NewTranslationService(translator port.Translator, chunkSize int, timeout time.Duration, logger *zap.Logger) *TranslationService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if timeout <= 0 {
		timeout = DefaultChunkTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranslationService{
		translator: translator,
		chunkSize:  chunkSize,
		timeout:    timeout,
		logger:     logger,
	}
}

// Translate переводит текст на целевой язык. Фрагменты переводятся по очереди;
// если не удался хоть один, перевод целиком считается неудачным.
func (s *TranslationService) Translate(ctx context.Context, text string, target entity.Language) (string, error) {
	if target.IsEnglish() || strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := splitChunks(text, s.chunkSize)
	var b strings.Builder
	for i, c := range chunks {
		translated, err := s.translateChunk(ctx, c.text, target)
		if err != nil {
			s.logger.Warn("Chunk translation failed",
				zap.String("language", target.Code()),
				zap.Int("chunk", i),
				zap.Int("chunks", len(chunks)),
				zap.Error(err))
			return "", &entity.TranslationError{Language: target, Chunk: i, Err: err}
		}
		b.WriteString(strings.TrimSpace(translated))
		b.WriteString(c.sep)
	}

	s.logger.Debug("Text translated",
		zap.String("language", target.Code()),
		zap.Int("chunks", len(chunks)))

	return b.String(), nil
}

func (s *TranslationService) translateChunk(ctx context.Context, text string, target entity.Language) (string, error) {
	chunkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.translator.Translate(chunkCtx, text, target)
}

// chunk фрагмент текста и разделитель, который шёл после него
type chunk struct {
	text string
	sep  string
}

type separator struct {
	split string // по чему режем
	keep  string // что возвращаем в конец фрагмента
	join  string // чем склеиваем обратно
}

// separators от крупных границ к мелким: абзац, строка, предложение, слово
var separators = []separator{
	{split: "\n\n", join: "\n\n"},
	{split: "\n", join: "\n"},
	{split: ". ", keep: ".", join: " "},
	{split: " ", join: " "},
}

// splitChunks режет текст на фрагменты не длиннее limit рун
func splitChunks(text string, limit int) []chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	chunks := splitLevel(text, limit, 0)
	if len(chunks) > 0 {
		chunks[len(chunks)-1].sep = ""
	}
	return chunks
}

func splitLevel(text string, limit, level int) []chunk {
	if utf8.RuneCountInString(text) <= limit {
		return []chunk{{text: text}}
	}
	if level >= len(separators) {
		return splitRunes(text, limit)
	}

	sep := separators[level]
	units := strings.Split(text, sep.split)
	if len(units) == 1 {
		return splitLevel(text, limit, level+1)
	}

	var out []chunk
	var cur strings.Builder
	curLen := 0
	joinLen := utf8.RuneCountInString(sep.join)

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		out = append(out, chunk{text: cur.String(), sep: sep.join})
		cur.Reset()
		curLen = 0
	}

	for i, unit := range units {
		if i < len(units)-1 {
			unit += sep.keep
		}
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		unitLen := utf8.RuneCountInString(unit)

		if unitLen > limit {
			flush()
			parts := splitLevel(unit, limit, level+1)
			parts[len(parts)-1].sep = sep.join
			out = append(out, parts...)
			continue
		}

		if curLen > 0 && curLen+joinLen+unitLen > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sep.join)
			curLen += joinLen
		}
		cur.WriteString(unit)
		curLen += unitLen
	}
	flush()
	return out
}

// splitRunes режет слово без пробелов по числу рун
func splitRunes(text string, limit int) []chunk {
	runes := []rune(text)
	out := make([]chunk, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, chunk{text: string(runes[start:end])})
	}
	return out
}
