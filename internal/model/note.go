package model

// NoteKind classifies a data-quality note raised by a pipeline stage.
type NoteKind string

const (
	NoteTokenCountMismatch NoteKind = "token_count_mismatch"
	NoteMissingJoinKey     NoteKind = "missing_join_key"
	NoteDuplicateRecord    NoteKind = "duplicate_record"
	NoteDuplicateKey       NoteKind = "duplicate_key"
	NoteDuplicateAlias     NoteKind = "duplicate_alias"
	NoteAliasChain         NoteKind = "alias_chain"
	NoteHierarchyConflict  NoteKind = "hierarchy_conflict"
)

// Note is a non-fatal diagnostic. Stages return notes alongside their
// results instead of logging them directly.
type Note struct {
	Kind     NoteKind `json:"kind"`
	Field    string   `json:"field,omitempty"`
	RecordID string   `json:"record_id,omitempty"`
	Detail   string   `json:"detail"`
}
