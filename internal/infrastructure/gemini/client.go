package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"leaf-doctor/internal/domain/port"
)

const DefaultModel = "gemini-2.0-flash"

// Settings параметры модели. Задаются один раз при старте процесса
// и после создания клиента не меняются.
type Settings struct {
	APIKey          string
	Model           string
	Timeout         time.Duration // таймаут одного вызова
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	SafetyThreshold genai.HarmBlockThreshold
	BaseURL         string // переопределение адреса API, используется в тестах
}

// DefaultSettings возвращает фиксированные параметры генерации
func DefaultSettings(apiKey, model string, timeout time.Duration) Settings {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return Settings{
		APIKey:          apiKey,
		Model:           strings.TrimPrefix(strings.TrimSpace(model), "models/"),
		Timeout:         timeout,
		Temperature:     0.4,
		TopP:            1,
		TopK:            32,
		MaxOutputTokens: 4096,
		SafetyThreshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	}
}

// safetyCategories категории, для которых действует порог блокировки
var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// Client обращается к Gemini через google.golang.org/genai
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	config  *genai.GenerateContentConfig
	logger  *zap.Logger
}

// NewClient создаёт клиента с неизменяемой конфигурацией генерации
func NewClient(ctx context.Context, s Settings, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, errors.New("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	safety := make([]*genai.SafetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  category,
			Threshold: s.SafetyThreshold,
		})
	}

	return &Client{
		client:  client,
		model:   s.Model,
		timeout: s.Timeout,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(s.Temperature),
			TopP:            genai.Ptr(s.TopP),
			TopK:            genai.Ptr(s.TopK),
			MaxOutputTokens: s.MaxOutputTokens,
			SafetySettings:  safety,
		},
		logger: logger,
	}, nil
}

// Infer отправляет запрос в модель. Изображения всегда идут после текста инструкции.
func (c *Client) Infer(ctx context.Context, parts []port.Part) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(buildParts(parts), genai.RoleUser),
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(callCtx, c.model, contents, c.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", emptyResponseError(resp)
	}

	c.logger.Debug("Gemini call completed",
		zap.String("model", c.model),
		zap.Int("parts", len(parts)),
		zap.Int("response_len", len(text)),
		zap.Duration("took", time.Since(start)))

	return text, nil
}

// buildParts переводит части запроса в формат genai, сохраняя порядок текста
func buildParts(parts []port.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	var images []*genai.Part
	for _, p := range parts {
		if p.IsImage() {
			images = append(images, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		if p.Text != "" {
			out = append(out, genai.NewPartFromText(p.Text))
		}
	}
	return append(out, images...)
}

func emptyResponseError(resp *genai.GenerateContentResponse) error {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		return fmt.Errorf("empty response, finish reason %s", resp.Candidates[0].FinishReason)
	}
	return errors.New("empty response")
}

// Проверка реализации интерфейса
var _ port.InferenceClient = (*Client)(nil)
