package dto

// RepairRequest controls a reconciliation run.
type RepairRequest struct {
	DryRun *bool `json:"dryRun"`
}

// RepairReport counts each named issue category found and (when not a dry
// run) fixed. Corruption is reported, never thrown.
type RepairReport struct {
	DryRun              bool `json:"dryRun"`
	OrphanedProgress    int  `json:"orphanedProgress"`
	CorruptedCompletion int  `json:"corruptedCompletion"`
	DuplicateEntries    int  `json:"duplicateEntries"`
	ArchivedEntries     int  `json:"archivedEntries"`
}
