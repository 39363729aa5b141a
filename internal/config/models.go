package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultCatalog []byte

type Category string

const (
	CategoryText  Category = "text"
	CategoryImage Category = "image"
	CategoryAudio Category = "audio"
)

// Categories lists the model categories in menu order.
var Categories = []Category{CategoryText, CategoryImage, CategoryAudio}

var (
	ErrDuplicateModelKey = errors.New("duplicate model key")
	ErrInvalidCatalog    = errors.New("invalid model catalog")
)

// ModelDescriptor is the static description of one selectable model.
type ModelDescriptor struct {
	Key         string   `yaml:"-"`
	Category    Category `yaml:"-"`
	DisplayName string   `yaml:"display_name"`
	APIModel    string   `yaml:"api_model"`
	// Provider selects the backend for text models: "hyperbolic" (default) or "anthropic".
	Provider    string  `yaml:"provider,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	TopP        float32 `yaml:"top_p,omitempty"`
}

// Catalog holds every model descriptor, indexed by key. Keys are unique
// across categories so a key alone determines the category.
type Catalog struct {
	byKey map[string]ModelDescriptor
	order map[Category][]string
}

// LoadCatalog reads a catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model catalog: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog. Keys are checked on the node tree,
// because a plain map decode would let a repeated key shadow an earlier one.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of categories", ErrInvalidCatalog)
	}

	c := &Catalog{
		byKey: make(map[string]ModelDescriptor),
		order: make(map[Category][]string),
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		category := Category(root.Content[i].Value)
		if !validCategory(category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidCatalog, category)
		}

		models := root.Content[i+1]
		if models.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: category %q must be a mapping", ErrInvalidCatalog, category)
		}

		for j := 0; j+1 < len(models.Content); j += 2 {
			key := models.Content[j].Value

			if existing, ok := c.byKey[key]; ok {
				return nil, fmt.Errorf("%w: %q defined in %s (line %d) and %s", ErrDuplicateModelKey, key, category, models.Content[j].Line, existing.Category)
			}

			var desc ModelDescriptor
			if err := models.Content[j+1].Decode(&desc); err != nil {
				return nil, fmt.Errorf("%w: model %q: %v", ErrInvalidCatalog, key, err)
			}

			desc.Key = key
			desc.Category = category

			if err := desc.validate(); err != nil {
				return nil, err
			}

			c.byKey[key] = desc
			c.order[category] = append(c.order[category], key)
		}
	}

	if len(c.byKey) == 0 {
		return nil, fmt.Errorf("%w: no models defined", ErrInvalidCatalog)
	}

	return c, nil
}

func (d ModelDescriptor) validate() error {
	if d.APIModel == "" {
		return fmt.Errorf("%w: model %q has no api_model", ErrInvalidCatalog, d.Key)
	}

	if d.DisplayName == "" {
		return fmt.Errorf("%w: model %q has no display_name", ErrInvalidCatalog, d.Key)
	}

	switch d.Provider {
	case "", "hyperbolic":
	case "anthropic":
		if d.Category != CategoryText {
			return fmt.Errorf("%w: model %q: anthropic provider only serves text", ErrInvalidCatalog, d.Key)
		}
	default:
		return fmt.Errorf("%w: model %q has unknown provider %q", ErrInvalidCatalog, d.Key, d.Provider)
	}

	return nil
}

func validCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Lookup returns the descriptor for key.
func (c *Catalog) Lookup(key string) (ModelDescriptor, bool) {
	desc, ok := c.byKey[key]
	return desc, ok
}

// CategoryOf returns the category a key belongs to.
func (c *Catalog) CategoryOf(key string) (Category, bool) {
	desc, ok := c.byKey[key]
	return desc.Category, ok
}

// Models returns the descriptors of one category in catalog order.
func (c *Catalog) Models(category Category) []ModelDescriptor {
	keys := c.order[category]
	models := make([]ModelDescriptor, 0, len(keys))
	for _, key := range keys {
		models = append(models, c.byKey[key])
	}
	return models
}

// Len returns the number of models in the catalog.
func (c *Catalog) Len() int {
	return len(c.byKey)
}
