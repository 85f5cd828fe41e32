package pipeline

import "github.com/offset-permanence/curate-cli/internal/model"

// Field names of the standard registry.
const (
	FieldGeography    = "geography"
	FieldSpecies      = "species"
	FieldEcosystem    = "ecosystem"
	FieldIntervention = "intervention"
	FieldDelivery     = "delivery"
	FieldPolicy       = "policy"
	FieldProgram      = "program"
	FieldRisk         = "risk"
)

// DefaultFields returns the eight standard field pipelines in run order.
func DefaultFields() []model.FieldSpec {
	return []model.FieldSpec{
		{
			Name:         FieldGeography,
			Columns:      []string{model.ColCountry, model.ColRegion, model.ColRegionType},
			AliasColumns: []string{model.ColCountry, model.ColRegion, model.ColRegionType},
			Kind:         model.MatchGeography,
		},
		{
			Name:         FieldSpecies,
			Columns:      []string{"focal_species"},
			AliasColumns: []string{"focal_species"},
			Kind:         model.MatchStrict,
			Schema: model.ReferenceSchema{
				Attributes: []string{"taxonomic_group", "common_name"},
				Required:   []string{"taxonomic_group"},
			},
		},
		{
			Name:         FieldEcosystem,
			Columns:      []string{"ecosystem_type_specific"},
			AliasColumns: []string{"ecosystem_type_specific"},
			Kind:         model.MatchStrict,
			Schema: model.ReferenceSchema{
				Attributes: []string{"ecosystem_type_broad", "realm"},
				Required:   []string{"ecosystem_type_broad"},
				Parent:     "ecosystem_type_broad",
			},
		},
		{
			Name:         FieldIntervention,
			Columns:      []string{"project_type_specific"},
			AliasColumns: []string{"project_type_specific"},
			Kind:         model.MatchStrict,
			Schema: model.ReferenceSchema{
				Attributes: []string{"project_type_broad"},
				Required:   []string{"project_type_broad"},
				Parent:     "project_type_broad",
			},
		},
		{
			Name:         FieldDelivery,
			Columns:      []string{"offset_delivery_type"},
			AliasColumns: []string{"offset_delivery_type"},
			Kind:         model.MatchStrict,
			Schema: model.ReferenceSchema{
				Attributes: []string{"delivery_category"},
				Required:   []string{"delivery_category"},
			},
		},
		{
			// Adoption year and jurisdiction come from the reference table,
			// not from the coded columns.
			Name:         FieldPolicy,
			Columns:      []string{"policy_legal_instrument_name"},
			AliasColumns: []string{"policy_legal_instrument_name"},
			Kind:         model.MatchStrict,
			Schema: model.ReferenceSchema{
				Attributes: []string{"policy_type", "jurisdiction_level", "jurisdiction_location", "status", "year_adopted", "description"},
				Required:   []string{"policy_type", "jurisdiction_level", "status"},
			},
		},
		{
			Name:         FieldProgram,
			Columns:      []string{"offset_program_name"},
			AliasColumns: []string{"offset_program_name"},
			Kind:         model.MatchStrict,
			Schema: model.ReferenceSchema{
				Attributes: []string{"program_type", "administering_body", "program_scope"},
				Required:   []string{"program_type"},
			},
		},
		{
			Name:         FieldRisk,
			Columns:      []string{"permanence_risk_subcategory"},
			AliasColumns: []string{"permanence_risk_subcategory"},
			Kind:         model.MatchStrict,
			Schema: model.ReferenceSchema{
				Attributes: []string{"risk_category", "risk_domain"},
				Required:   []string{"risk_category", "risk_domain"},
				Parent:     "risk_category",
			},
		},
	}
}

// Registry returns the standard field registry.
func Registry() *model.FieldRegistry {
	return model.NewFieldRegistry(DefaultFields())
}
