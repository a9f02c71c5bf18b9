package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// AuditStore implements domain.AuditStore using PostgreSQL. Balances are
// stored as decimal strings to keep arbitrary precision exact end to end.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// InsertRun persists a run and its mismatches in one transaction.
func (s *AuditStore) InsertRun(ctx context.Context, run domain.VerificationRun) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin insert run: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertRun = `
		INSERT INTO verification_run (id, tx_hash, offerer, fulfiller, checked_keys, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = tx.Exec(ctx, insertRun,
		run.ID, run.TxHash.Hex(), run.Offerer.Hex(), run.Fulfiller.Hex(),
		run.CheckedKeys, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert run %s: %w", run.ID, err)
	}

	const insertMismatch = `
		INSERT INTO verification_mismatch (run_id, owner, token, identifier, expected, actual)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, m := range run.Mismatches {
		identifier := "0"
		if m.Asset.Identifier != nil {
			identifier = m.Asset.Identifier.String()
		}
		_, err = tx.Exec(ctx, insertMismatch,
			run.ID, m.Owner.Hex(), m.Asset.Token.Hex(), identifier,
			m.Expected.String(), m.Actual.String(),
		)
		if err != nil {
			return fmt.Errorf("postgres: insert mismatch for run %s: %w", run.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit insert run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads one run with its mismatches. Returns domain.ErrNotFound when
// the id is unknown.
func (s *AuditStore) GetRun(ctx context.Context, id string) (domain.VerificationRun, error) {
	const query = `
		SELECT id, tx_hash, offerer, fulfiller, checked_keys, created_at
		FROM verification_run WHERE id = $1`

	var run domain.VerificationRun
	var txHash, offerer, fulfiller string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &txHash, &offerer, &fulfiller, &run.CheckedKeys, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.VerificationRun{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.VerificationRun{}, fmt.Errorf("postgres: get run %s: %w", id, err)
	}
	run.TxHash = common.HexToHash(txHash)
	run.Offerer = common.HexToAddress(offerer)
	run.Fulfiller = common.HexToAddress(fulfiller)

	run.Mismatches, err = s.loadMismatches(ctx, id)
	if err != nil {
		return domain.VerificationRun{}, err
	}
	return run, nil
}

// ListRecent returns the most recent runs, newest first, mismatches included.
func (s *AuditStore) ListRecent(ctx context.Context, limit int) ([]domain.VerificationRun, error) {
	const query = `
		SELECT id, tx_hash, offerer, fulfiller, checked_keys, created_at
		FROM verification_run ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.VerificationRun
	for rows.Next() {
		var run domain.VerificationRun
		var txHash, offerer, fulfiller string
		if err := rows.Scan(&run.ID, &txHash, &offerer, &fulfiller, &run.CheckedKeys, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		run.TxHash = common.HexToHash(txHash)
		run.Offerer = common.HexToAddress(offerer)
		run.Fulfiller = common.HexToAddress(fulfiller)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate runs: %w", err)
	}

	for i := range runs {
		runs[i].Mismatches, err = s.loadMismatches(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *AuditStore) loadMismatches(ctx context.Context, runID string) ([]domain.Mismatch, error) {
	const query = `
		SELECT owner, token, identifier, expected, actual
		FROM verification_mismatch WHERE run_id = $1 ORDER BY id`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load mismatches for %s: %w", runID, err)
	}
	defer rows.Close()

	var mismatches []domain.Mismatch
	for rows.Next() {
		var owner, token, identifier, expected, actual string
		if err := rows.Scan(&owner, &token, &identifier, &expected, &actual); err != nil {
			return nil, fmt.Errorf("postgres: scan mismatch: %w", err)
		}
		m := domain.Mismatch{
			Owner: common.HexToAddress(owner),
			Asset: domain.AssetDescriptor{Token: common.HexToAddress(token)},
		}
		var ok bool
		if m.Asset.Identifier, ok = new(big.Int).SetString(identifier, 10); !ok {
			return nil, fmt.Errorf("postgres: parse identifier %q for run %s", identifier, runID)
		}
		if m.Expected, ok = new(big.Int).SetString(expected, 10); !ok {
			return nil, fmt.Errorf("postgres: parse expected %q for run %s", expected, runID)
		}
		if m.Actual, ok = new(big.Int).SetString(actual, 10); !ok {
			return nil, fmt.Errorf("postgres: parse actual %q for run %s", actual, runID)
		}
		mismatches = append(mismatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate mismatches: %w", err)
	}
	return mismatches, nil
}
