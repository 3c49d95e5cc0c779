package idempotency

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

// Header is the request header carrying the client-supplied key.
const Header = "Idempotency-Key"

type State string

const (
	// StateNew: this attempt owns the key; the workflow may proceed.
	StateNew State = "new"
	// StateInProgress: another attempt holds the key and has not completed.
	StateInProgress State = "in_progress"
	// StateCompleted: a previous attempt finished; replay the cached result.
	StateCompleted State = "completed"
)

// Ledger guards checkout entry. Begin runs inside the workflow transaction,
// so a rolled-back attempt leaves no trace and a retry starts fresh.
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

// Begin claims the key or observes an earlier attempt. Duplicate-key races
// are settled by the unique index: the losing writer affects zero rows,
// re-reads, and behaves as a retry instead of erroring.
func (l *Ledger) Begin(ctx context.Context, q postgres.Querier, key string) (State, json.RawMessage, error) {
	ct, err := q.Exec(ctx, `
		INSERT INTO idempotency_keys(id, key, status)
		VALUES ($1, $2, 'started')
		ON CONFLICT (key) DO NOTHING`, uuid.NewString(), key)
	if err != nil {
		return "", nil, err
	}
	if ct.RowsAffected() == 1 {
		return StateNew, nil, nil
	}

	var (
		status string
		output json.RawMessage
	)
	err = q.QueryRow(ctx, `SELECT status, handler_output FROM idempotency_keys WHERE key=$1`, key).
		Scan(&status, &output)
	if errors.Is(err, pgx.ErrNoRows) {
		// The competing attempt rolled back between our insert and read.
		return StateInProgress, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if status == "completed" {
		return StateCompleted, output, nil
	}
	return StateInProgress, nil, nil
}

// Complete caches the handler output and flips the key to completed. It is
// the last statement of the orchestrator transaction, atomic with order
// creation; started never reverts once this commits.
func (l *Ledger) Complete(ctx context.Context, q postgres.Querier, key string, result any) error {
	out, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		UPDATE idempotency_keys
		SET status='completed', handler_output=$2, updated_at=now()
		WHERE key=$1`, key, out)
	return err
}

// Lookup is the pre-transaction fast path: a completed key short-circuits
// checkout without opening the workflow transaction at all.
func (l *Ledger) Lookup(ctx context.Context, q postgres.Querier, key string) (State, json.RawMessage, error) {
	var (
		status string
		output json.RawMessage
	)
	err := q.QueryRow(ctx, `SELECT status, handler_output FROM idempotency_keys WHERE key=$1`, key).
		Scan(&status, &output)
	if errors.Is(err, pgx.ErrNoRows) {
		return StateNew, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if status == "completed" {
		return StateCompleted, output, nil
	}
	return StateInProgress, nil, nil
}
