package models

// EffectiveState is the provision-centric state after endorsements have
// been applied to a base-form provision.
type EffectiveState string

const (
	StateCovered            EffectiveState = "Covered"
	StatePartially          EffectiveState = "Partially"
	StateExcluded           EffectiveState = "Excluded"
	StatePartiallyExcluded  EffectiveState = "Partially Excluded"
	StateRemoved            EffectiveState = "Removed"
	StateAdded              EffectiveState = "Added"
	StateExpandedCoverage   EffectiveState = "Expanded Coverage"
	StateLimited            EffectiveState = "Limited"
)

// ProvisionSource cites the endorsement or base-form origin of a provision.
type ProvisionSource struct {
	EndorsementRef string `json:"endorsement_ref,omitempty"` // e.g. "CA T3 53"
	IsBaseForm     bool   `json:"is_base_form"`
	PageNumbers    []int  `json:"page_numbers"`
	SourceText     string `json:"source_text,omitempty"`
}

// ProvisionCore holds the fields common to EffectiveCoverage and
// EffectiveExclusion.
type ProvisionCore struct {
	CanonicalID         string            `json:"canonical_id"`
	Name                string            `json:"name"`
	EffectiveState      EffectiveState    `json:"effective_state"`
	Scope               string            `json:"scope,omitempty"`
	CarveBacks          []string          `json:"carve_backs,omitempty"`
	Conditions          []string          `json:"conditions,omitempty"`
	ImpactedCoverages   []string          `json:"impacted_coverages,omitempty"`
	Sources             []ProvisionSource `json:"sources"` // I6: non-empty
	Confidence          float64           `json:"confidence"`
	Severity            string           `json:"severity,omitempty"`
	Description         string           `json:"description,omitempty"`
	PageNumbers         []int            `json:"page_numbers"`
	SourceText          string           `json:"source_text,omitempty"`
	ClauseReference     string           `json:"clause_reference,omitempty"`
	IsStandardProvision bool             `json:"is_standard_provision"`
	IsModified          bool             `json:"is_modified"`
	SynthesisMethod     string           `json:"synthesis_method"` // "direct" | "llm_inference"
}

// EffectiveCoverage is the synthesized, endorsement-reconciled view of one
// coverage provision.
type EffectiveCoverage struct {
	ProvisionCore
}

// EffectiveExclusion is the synthesized, endorsement-reconciled view of one
// exclusion provision.
type EffectiveExclusion struct {
	ProvisionCore
}

// EffectCategory is how an endorsement modification changes a provision.
type EffectCategory string

const (
	EffectAdds       EffectCategory = "adds"
	EffectExpands    EffectCategory = "expands"
	EffectLimits     EffectCategory = "limits"
	EffectRestores   EffectCategory = "restores"
	EffectIntroduces EffectCategory = "introduces"
	EffectNarrows    EffectCategory = "narrows"
	EffectRemoves    EffectCategory = "removes"
)

// EndorsementModification is one projected change an endorsement makes to a
// base coverage or exclusion.
type EndorsementModification struct {
	EndorsementRef    string         `json:"endorsement_ref"`
	ImpactedCoverage  string         `json:"impacted_coverage,omitempty"`
	ImpactedExclusion string         `json:"impacted_exclusion,omitempty"`
	EffectCategory    EffectCategory `json:"effect_category"`
	Scope             string         `json:"scope,omitempty"`
	Limit             string         `json:"limit,omitempty"`
	Condition         string         `json:"condition,omitempty"`
	VerbatimLanguage  string         `json:"verbatim_language,omitempty"`
	PageNumbers       []int          `json:"page_numbers"`
	SourceText        string         `json:"source_text,omitempty"`
	Severity          string         `json:"severity,omitempty"`
}

// BaseProvision is a coverage or exclusion read directly from a base-form
// or dedicated coverages/exclusions section, with no endorsement modifying it.
type BaseProvision struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "coverage" | "exclusion"
	PageNumbers []int  `json:"page_numbers"`
	SourceText  string `json:"source_text,omitempty"`
}
