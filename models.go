package chatstream

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/models/catalog.yaml
var defaultCatalogYAML []byte

// Catalog Philosophy:
//
// This file provides MODEL METADATA for UX, cost estimates, and preflight
// warnings. It does NOT enforce validation - the endpoint is the source of
// truth for which models exist and what they can do.
//
// Use cases:
//  - Display model limits in UI
//  - Calculate pricing estimates
//  - Warn when streaming is requested from a model known not to stream
//
// The catalog may be outdated as endpoints release new models. Library users
// can override the embedded catalog by:
//  1. Calling LoadCatalogFromFile() with custom YAML
//  2. Calling RegisterModel() programmatically

// ModelInfo is the catalog's metadata for one model.
type ModelInfo struct {
	// Family is the provider family the model belongs to ("openai",
	// "anthropic", "lorem").
	Family string `yaml:"family"`

	ContextWindow   int `yaml:"context_window"`
	MaxOutputTokens int `yaml:"max_output_tokens"`

	// Streaming is false for the few models whose endpoints reject
	// stream=true.
	Streaming bool `yaml:"streaming"`

	Pricing PricingInfo `yaml:"pricing"`
}

// PricingInfo contains model pricing in dollars per million tokens.
type PricingInfo struct {
	InputPer1M  float64 `yaml:"input_per_1m"`
	OutputPer1M float64 `yaml:"output_per_1m"`
}

// modelCatalogFile is the YAML shape of a catalog document.
type modelCatalogFile struct {
	Version     string               `yaml:"version"`
	LastUpdated string               `yaml:"last_updated"`
	Models      map[string]ModelInfo `yaml:"models"`
}

// ModelCatalog manages model metadata.
type ModelCatalog struct {
	models map[string]ModelInfo
	mu     sync.RWMutex
}

var (
	globalCatalog     *ModelCatalog
	globalCatalogOnce sync.Once
)

// GetModelCatalog returns the global model catalog (singleton), seeded from
// the embedded YAML.
func GetModelCatalog() *ModelCatalog {
	globalCatalogOnce.Do(func() {
		globalCatalog = &ModelCatalog{
			models: make(map[string]ModelInfo),
		}
		if err := globalCatalog.loadEmbedded(); err != nil {
			// Log error but don't panic - lookups degrade to "unknown model"
			fmt.Printf("Warning: failed to load embedded model catalog: %v\n", err)
		}
	})
	return globalCatalog
}

func (c *ModelCatalog) loadEmbedded() error {
	var file modelCatalogFile
	if err := yaml.Unmarshal(defaultCatalogYAML, &file); err != nil {
		return fmt.Errorf("failed to unmarshal embedded catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, info := range file.Models {
		c.models[name] = info
	}
	return nil
}

// GetModelInfo returns catalog metadata for a model.
func (c *ModelCatalog) GetModelInfo(model string) (*ModelInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.models[model]
	if !ok {
		return nil, fmt.Errorf("model %s not found in catalog", model)
	}
	return &info, nil
}

// KnownModel checks if the catalog has metadata for a model.
func (c *ModelCatalog) KnownModel(model string) bool {
	_, err := c.GetModelInfo(model)
	return err == nil
}

// SupportsStreaming reports whether a model accepts stream=true. Unknown
// models are assumed capable - the endpoint decides, the catalog only warns.
func (c *ModelCatalog) SupportsStreaming(model string) bool {
	info, err := c.GetModelInfo(model)
	if err != nil {
		return true
	}
	return info.Streaming
}

// EstimateCost returns the dollar cost of a usage record for a model, or an
// error when the model is not in the catalog.
func (c *ModelCatalog) EstimateCost(model string, usage Usage) (float64, error) {
	info, err := c.GetModelInfo(model)
	if err != nil {
		return 0, err
	}
	cost := float64(usage.PromptTokens)/1e6*info.Pricing.InputPer1M +
		float64(usage.CompletionTokens)/1e6*info.Pricing.OutputPer1M
	return cost, nil
}

// LoadCatalogFromFile merges model entries from a YAML file into the catalog.
// This allows library users to override embedded metadata with custom data.
// The file format matches the embedded YAML structure.
func (c *ModelCatalog) LoadCatalogFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file modelCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, info := range file.Models {
		c.models[name] = info
	}
	return nil
}

// RegisterModel programmatically adds or replaces one catalog entry.
func (c *ModelCatalog) RegisterModel(name string, info ModelInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[name] = info
}

// LoadCatalogFromFile is a convenience function that calls the global catalog's LoadCatalogFromFile.
func LoadCatalogFromFile(path string) error {
	return GetModelCatalog().LoadCatalogFromFile(path)
}

// RegisterModel is a convenience function that calls the global catalog's RegisterModel.
func RegisterModel(name string, info ModelInfo) {
	GetModelCatalog().RegisterModel(name, info)
}
