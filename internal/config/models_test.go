package config

import (
	"errors"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("embedded catalog failed to load: %v", err)
	}

	if c.Len() != 13 {
		t.Errorf("expected 13 models, got %d", c.Len())
	}

	flux, ok := c.Lookup("flux")
	if !ok {
		t.Fatal("flux not found")
	}
	if flux.Category != CategoryImage || flux.APIModel != "FLUX.1-dev" {
		t.Errorf("unexpected flux descriptor: %+v", flux)
	}

	deepseek, _ := c.Lookup("deepseek")
	if deepseek.MaxTokens != 13540 || deepseek.Temperature != 0.1 || deepseek.TopP != 0.9 {
		t.Errorf("unexpected deepseek params: %+v", deepseek)
	}

	hermes, _ := c.Lookup("hermes")
	if hermes.APIModel != "NousResearch/Hermes-3-Llama-3.1-70B" {
		t.Errorf("hermes should resolve to the Hermes model, got %s", hermes.APIModel)
	}
}

func TestCatalogPreservesOrder(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatal(err)
	}

	text := c.Models(CategoryText)
	if len(text) == 0 || text[0].Key != "meta_llama" {
		t.Errorf("expected meta_llama first, got %+v", text)
	}

	audio := c.Models(CategoryAudio)
	if len(audio) != 1 || audio[0].Key != "melo_tts" {
		t.Errorf("unexpected audio models: %+v", audio)
	}
}

func TestCatalogRejectsDuplicateKeyWithinCategory(t *testing.T) {
	data := []byte(`
text:
  hermes:
    display_name: Hermes
    api_model: NousResearch/Hermes-3-Llama-3.1-70B
  hermes:
    display_name: Qwen
    api_model: Qwen/Qwen2.5-72B-Instruct
`)

	_, err := ParseCatalog(data)
	if !errors.Is(err, ErrDuplicateModelKey) {
		t.Errorf("expected ErrDuplicateModelKey, got %v", err)
	}
}

func TestCatalogRejectsDuplicateKeyAcrossCategories(t *testing.T) {
	data := []byte(`
text:
  shared:
    display_name: Text
    api_model: a
image:
  shared:
    display_name: Image
    api_model: b
`)

	_, err := ParseCatalog(data)
	if !errors.Is(err, ErrDuplicateModelKey) {
		t.Errorf("expected ErrDuplicateModelKey, got %v", err)
	}
}

func TestCatalogRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"unknown category": "video:\n  x:\n    display_name: X\n    api_model: x\n",
		"missing model":    "text:\n  x:\n    display_name: X\n",
		"bad provider":     "text:\n  x:\n    display_name: X\n    api_model: x\n    provider: nope\n",
		"anthropic image":  "image:\n  x:\n    display_name: X\n    api_model: x\n    provider: anthropic\n",
		"empty":            "",
	}

	for name, data := range cases {
		if _, err := ParseCatalog([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatal(err)
	}

	if cat, ok := c.CategoryOf("melo_tts"); !ok || cat != CategoryAudio {
		t.Errorf("expected audio, got %s (%v)", cat, ok)
	}

	if _, ok := c.CategoryOf("missing"); ok {
		t.Error("unknown key should not resolve to a category")
	}
}
