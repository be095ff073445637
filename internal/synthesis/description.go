package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insurdocs/pipeline/internal/llm"
)

// descriptionTemplate is a curated, broker-facing description for a standard
// provision, keyed by provision name (matched case-insensitively /
// partially, mirroring the template lookup this engine was grounded on).
type descriptionTemplate struct {
	text     string
	severity string
}

var exclusionDescriptionTemplates = map[string]descriptionTemplate{
	"expected or intended injury": {"No coverage for bodily injury or property damage expected or intended from the standpoint of the insured.", "Material"},
	"contractual":                 {"No coverage for liability assumed under contract, except for specific permitted contracts.", "Material"},
	"workers' compensation":       {"No coverage for obligations under workers' compensation, disability benefits, or similar laws.", "Material"},
	"care, custody or control":    {"No coverage for damage to property owned, transported, or in the insured's care, custody or control.", "Material"},
	"pollution":                   {"No coverage for injury or damage arising from pollution, with limited exceptions for covered pollution costs.", "Material"},
	"war":                         {"No coverage for injury or damage arising from war, insurrection, rebellion, or revolution.", "Material"},
}

var coverageDescriptionTemplates = map[string]descriptionTemplate{
	"covered autos liability coverage":     {"Pays all sums the insured legally must pay as damages for bodily injury or property damage caused by an accident resulting from ownership, maintenance, or use of a covered auto.", ""},
	"physical damage coverage - collision":  {"Covers loss to a covered auto caused by collision with another object or by overturn.", ""},
	"business income coverage":              {"Covers lost income and continuing expenses when operations are suspended by direct physical loss to covered property.", ""},
	"building and personal property coverage": {"Covers direct physical loss to covered buildings and business personal property at the described premises.", ""},
}

// GenerateDescription produces a broker-facing description for a provision:
// a curated template match first, an LLM summary of verbatim_text when a
// client is available, then a generic fallback.
func GenerateDescription(ctx context.Context, client llm.Client, kind, name, verbatimText string) string {
	templates := coverageDescriptionTemplates
	if kind == "exclusion" {
		templates = exclusionDescriptionTemplates
	}
	if tmpl, ok := findTemplate(name, templates); ok {
		return tmpl.text
	}
	if client != nil && verbatimText != "" {
		if desc, err := generateLLMDescription(ctx, client, kind, name, verbatimText); err == nil && desc != "" {
			return desc
		}
	}
	return fallbackDescription(kind, name)
}

// SeverityOf returns the curated severity rating for a known exclusion
// template, defaulting to "Material" like the knowledge base it generalizes.
func SeverityOf(name string) string {
	if tmpl, ok := findTemplate(name, exclusionDescriptionTemplates); ok && tmpl.severity != "" {
		return tmpl.severity
	}
	return "Material"
}

// ModificationSummary describes how an endorsement changed a base provision,
// e.g. "Business Income Coverage expanded by endorsement CP 15 30."
func ModificationSummary(provisionName string, effect string, endorsementRef string, scopeChange string) string {
	phrases := map[string]string{
		"adds":       "added by",
		"expands":    "expanded by",
		"limits":     "restricted by",
		"restores":   "restored by",
		"introduces": "introduced by",
		"narrows":    "partially restored by",
		"removes":    "removed by",
	}
	phrase, ok := phrases[effect]
	if !ok {
		phrase = "modified by"
	}

	var b strings.Builder
	if endorsementRef != "" {
		fmt.Fprintf(&b, "%s %s endorsement %s", provisionName, phrase, endorsementRef)
	} else {
		fmt.Fprintf(&b, "%s %s endorsement", provisionName, phrase)
	}
	if scopeChange != "" {
		fmt.Fprintf(&b, ". Scope change: %s", scopeChange)
	}
	b.WriteString(".")
	return b.String()
}

func findTemplate(name string, templates map[string]descriptionTemplate) (descriptionTemplate, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if tmpl, ok := templates[lower]; ok {
		return tmpl, true
	}
	for key, tmpl := range templates {
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			return tmpl, true
		}
	}
	return descriptionTemplate{}, false
}

const descriptionSystemPrompt = "You are an insurance policy analyst who writes clear, concise summaries."

func generateLLMDescription(ctx context.Context, client llm.Client, kind, name, verbatimText string) (string, error) {
	userPrompt := fmt.Sprintf(`Generate a clear, concise description for this insurance %s.

Provision Name: %s
Policy Text: %s

Write 1-2 plain-language sentences about what is or isn't covered.
Respond with JSON only: {"description": "..."}`, kind, name, verbatimText)

	raw, err := client.GenerateJSON(ctx, descriptionSystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.Description), nil
}

func fallbackDescription(kind, name string) string {
	if kind == "exclusion" {
		return fmt.Sprintf("This insurance does not apply to %s-related claims. Review policy language for specific terms and exceptions.", strings.ToLower(name))
	}
	return fmt.Sprintf("Provides coverage for %s as defined in the policy. Review policy language for limits, conditions, and exclusions.", strings.ToLower(name))
}
