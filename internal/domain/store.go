package domain

import "context"

// AuditStore persists verification runs and their mismatches.
type AuditStore interface {
	InsertRun(ctx context.Context, run VerificationRun) error
	GetRun(ctx context.Context, id string) (VerificationRun, error)
	ListRecent(ctx context.Context, limit int) ([]VerificationRun, error)
}

// ReportArchiver uploads a long-term copy of a verification run to object
// storage and returns the storage key it was written under.
type ReportArchiver interface {
	Archive(ctx context.Context, run VerificationRun) (string, error)
}
