package workflow

import (
	"fmt"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/models"
)

// ProductConfigFromYAML converts one named entry of the operator-facing
// config.Config.Products map (plain strings, the shape YAML naturally
// unmarshals into) into the typed models.ProductConfig a workflow run
// payload carries. The LLM provider/model are not themselves per-product
// in config.yaml; every product inherits cfg.LLM unless the spec later
// calls for an override, so this is the one place that decision is made.
func ProductConfigFromYAML(cfg config.Config, product string) (models.ProductConfig, error) {
	pc, ok := cfg.Products[product]
	if !ok {
		return models.ProductConfig{}, fmt.Errorf("unknown product %q", product)
	}

	sections := make([]models.PageType, len(pc.RequiredSections))
	for i, s := range pc.RequiredSections {
		sections[i] = models.PageType(s)
	}
	entities := make([]models.EntityType, len(pc.RequiredEntities))
	for i, e := range pc.RequiredEntities {
		entities[i] = models.EntityType(e)
	}
	skip := make([]models.Stage, len(pc.SkipStages))
	for i, s := range pc.SkipStages {
		skip[i] = models.Stage(s)
	}

	return models.ProductConfig{
		RequiredSections:       sections,
		RequiredEntities:       entities,
		ChunkMaxTokens:         pc.ChunkMaxTokens,
		ChunkOverlapTokens:     pc.ChunkOverlapTokens,
		MaxTokensPerSuperChunk: pc.MaxTokensPerSuperChunk,
		ConfidenceThreshold:    pc.ConfidenceThreshold,
		LLMProvider:            cfg.LLM.Provider,
		LLMModel:               cfg.LLM.Model,
		SkipStages:             skip,
		GenerateDescriptions:   pc.GenerateDescriptions,
	}, nil
}
