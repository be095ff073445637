package workflow

import (
	"testing"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/models"
)

func TestProductConfigFromYAML(t *testing.T) {
	cfg := config.Config{
		LLM: config.LLMConfig{Provider: "gemini", Model: "gemini-2.0-flash"},
		Products: map[string]config.ProductConfig{
			"policy_comparison": {
				RequiredSections:    []string{"declarations", "endorsements"},
				RequiredEntities:    []string{"Coverage"},
				ChunkMaxTokens:      800,
				ConfidenceThreshold: 0.7,
				SkipStages:          []string{"SUMMARIZED"},
			},
		},
	}

	pc, err := ProductConfigFromYAML(cfg, "policy_comparison")
	if err != nil {
		t.Fatal(err)
	}
	if pc.LLMProvider != "gemini" || pc.LLMModel != "gemini-2.0-flash" {
		t.Errorf("LLM provider/model not inherited from cfg.LLM: %+v", pc)
	}
	if len(pc.RequiredSections) != 2 || pc.RequiredSections[0] != models.PageDeclarations {
		t.Errorf("RequiredSections = %+v", pc.RequiredSections)
	}
	if len(pc.RequiredEntities) != 1 || pc.RequiredEntities[0] != models.EntityCoverage {
		t.Errorf("RequiredEntities = %+v", pc.RequiredEntities)
	}
	if len(pc.SkipStages) != 1 || pc.SkipStages[0] != models.StageSummarized {
		t.Errorf("SkipStages = %+v", pc.SkipStages)
	}
}

func TestProductConfigFromYAML_unknownProduct(t *testing.T) {
	cfg := config.Config{Products: map[string]config.ProductConfig{}}
	if _, err := ProductConfigFromYAML(cfg, "nonexistent"); err == nil {
		t.Error("expected an error for an unknown product name")
	}
}
