package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"leaf-doctor/internal/domain/entity"
)

// Slot единственный слот подстановки в шаблонах
const Slot = "{description}"

//go:embed prompts.yaml
var defaultPrompts []byte

// Template текстовый шаблон промпта
type Template string

// Render подставляет описание в слот. Подставленный текст повторно не сканируется.
func (t Template) Render(description string) string {
	return strings.ReplaceAll(string(t), Slot, description)
}

// HasSlot сообщает, есть ли в шаблоне слот описания
func (t Template) HasSlot() bool {
	return strings.Contains(string(t), Slot)
}

func (t Template) String() string {
	return string(t)
}

type catalogFile struct {
	Languages map[string]map[string]string `yaml:"languages"`
}

// Catalog шаблоны, индексированные по (стадия, язык)
type Catalog struct {
	templates map[entity.Language]map[entity.Stage]Template
}

// Default возвращает встроенный каталог
func Default() *Catalog {
	c, err := Parse(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("prompt: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile читает каталог из файла поверх встроенного
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}

	c := Default()
	for lang, stages := range override.templates {
		if c.templates[lang] == nil {
			c.templates[lang] = make(map[entity.Stage]Template)
		}
		for stage, tpl := range stages {
			c.templates[lang][stage] = tpl
		}
	}
	return c, nil
}

// Parse разбирает YAML каталога и проверяет шаблоны
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	c := &Catalog{templates: make(map[entity.Language]map[entity.Stage]Template)}
	for rawLang, stages := range file.Languages {
		lang, err := entity.ParseLanguage(rawLang)
		if err != nil {
			return nil, fmt.Errorf("prompts: %w", err)
		}
		c.templates[lang] = make(map[entity.Stage]Template)

		for rawStage, text := range stages {
			stage := entity.Stage(strings.ToLower(strings.TrimSpace(rawStage)))
			tpl := Template(strings.TrimSpace(text))
			if err := validate(stage, tpl); err != nil {
				return nil, fmt.Errorf("prompts %s/%s: %w", lang, stage, err)
			}
			c.templates[lang][stage] = tpl
		}
	}
	return c, nil
}

func validate(stage entity.Stage, tpl Template) error {
	if tpl == "" {
		return fmt.Errorf("empty template")
	}
	switch stage {
	case entity.StageDiagnose:
		if !tpl.HasSlot() {
			return fmt.Errorf("template must contain %s", Slot)
		}
	case entity.StageDescribe, entity.StageTranslate:
		if tpl.HasSlot() {
			return fmt.Errorf("template must not contain %s", Slot)
		}
	default:
		return fmt.Errorf("unknown stage")
	}
	return nil
}

// Template возвращает шаблон стадии для языка. Для описания и диагноза
// используется английский шаблон, если на нужном языке его нет.
// Шаблон перевода ищется только по целевому языку.
func (c *Catalog) Template(stage entity.Stage, language entity.Language) (Template, error) {
	if tpl, ok := c.templates[language][stage]; ok {
		return tpl, nil
	}
	if stage != entity.StageTranslate {
		if tpl, ok := c.templates[entity.LanguageEnglish][stage]; ok {
			return tpl, nil
		}
	}
	return "", fmt.Errorf("no %s prompt for language %s", stage, language.Name())
}

// Languages возвращает языки каталога в отсортированном виде
func (c *Catalog) Languages() []entity.Language {
	langs := make([]entity.Language, 0, len(c.templates))
	for lang := range c.templates {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Supports сообщает, есть ли в каталоге шаблоны для языка
func (c *Catalog) Supports(language entity.Language) bool {
	_, ok := c.templates[language]
	return ok
}
