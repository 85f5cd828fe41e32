package model

// MatchTier is the fallback level at which an entry matched its reference table.
type MatchTier string

const (
	TierFull      MatchTier = "full"      // every key column matched exactly
	TierCountry   MatchTier = "country"   // country supplied, no subnational detail
	TierContinent MatchTier = "continent" // continent or supranational body only
	TierNone      MatchTier = "none"
)

// IssueType explains why an entry failed to match. Only set when Tier is TierNone.
type IssueType string

const (
	IssueNone              IssueType = ""
	IssueBadCountry        IssueType = "bad_country"
	IssueBadRegion         IssueType = "bad_region"
	IssueBadType           IssueType = "bad_type"
	IssueOnlyCountry       IssueType = "only_country"
	IssueContinentOnly     IssueType = "continent_only"
	IssueCompletelyUnknown IssueType = "completely_unknown"
	IssueUnknownValue      IssueType = "unknown_value"
)

// MatchResult is the classification of one ExplodedEntry.
//
// Resolved holds the post-alias (and, for geography, post-imputation) values
// aligned with Entry.Columns. Standardized and Attributes are aligned with the
// field's LongSchema and are empty when the entry did not match.
type MatchResult struct {
	Entry        ExplodedEntry `json:"entry"`
	Resolved     []string      `json:"resolved"`
	Tier         MatchTier     `json:"tier"`
	Issue        IssueType     `json:"issue,omitempty"`
	Standardized []string      `json:"standardized,omitempty"`
	Attributes   []string      `json:"attributes,omitempty"`
}

// Matched reports whether the entry matched at any tier.
func (m MatchResult) Matched() bool {
	return m.Tier != TierNone && m.Tier != ""
}
