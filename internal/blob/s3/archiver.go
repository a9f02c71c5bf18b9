package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// ReportArchiver implements domain.ReportArchiver by serializing a
// verification run to JSONL (one header line, then one line per mismatch)
// and uploading it under reports/<date>/run-<id>.jsonl.
type ReportArchiver struct {
	writer *Writer
}

// NewReportArchiver creates a ReportArchiver uploading via the given writer.
func NewReportArchiver(w *Writer) *ReportArchiver {
	return &ReportArchiver{writer: w}
}

type reportHeader struct {
	RunID       string `json:"run_id"`
	TxHash      string `json:"tx_hash"`
	Offerer     string `json:"offerer"`
	Fulfiller   string `json:"fulfiller"`
	CheckedKeys int    `json:"checked_keys"`
	Mismatches  int    `json:"mismatches"`
	CreatedAt   string `json:"created_at"`
}

type reportMismatch struct {
	Owner      string `json:"owner"`
	Token      string `json:"token"`
	Identifier string `json:"identifier"`
	Expected   string `json:"expected"`
	Actual     string `json:"actual"`
}

// Archive implements domain.ReportArchiver.
func (a *ReportArchiver) Archive(ctx context.Context, run domain.VerificationRun) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	header := reportHeader{
		RunID:       run.ID,
		TxHash:      run.TxHash.Hex(),
		Offerer:     run.Offerer.Hex(),
		Fulfiller:   run.Fulfiller.Hex(),
		CheckedKeys: run.CheckedKeys,
		Mismatches:  len(run.Mismatches),
		CreatedAt:   run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if err := enc.Encode(header); err != nil {
		return "", fmt.Errorf("s3blob: encode report header: %w", err)
	}

	for _, m := range run.Mismatches {
		identifier := "0"
		if m.Asset.Identifier != nil {
			identifier = m.Asset.Identifier.String()
		}
		line := reportMismatch{
			Owner:      m.Owner.Hex(),
			Token:      m.Asset.Token.Hex(),
			Identifier: identifier,
			Expected:   m.Expected.String(),
			Actual:     m.Actual.String(),
		}
		if err := enc.Encode(line); err != nil {
			return "", fmt.Errorf("s3blob: encode mismatch line: %w", err)
		}
	}

	key := fmt.Sprintf("reports/%s/run-%s.jsonl", run.CreatedAt.UTC().Format("2006/01/02"), run.ID)
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return "", err
	}
	return key, nil
}
