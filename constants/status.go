package constants

// OutcomeStatus is the canonical status for per-file outcomes.
type OutcomeStatus string

// Stable values (store these exact strings in DB).
const (
	OutcomeRenamed OutcomeStatus = "RENAMED" // file renamed in place
	OutcomeDryRun  OutcomeStatus = "DRY_RUN" // rename planned but not applied
	OutcomeFailed  OutcomeStatus = "FAILED"  // terminal failure, file untouched
)
