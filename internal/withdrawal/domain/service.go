package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RequestWithdrawal struct {
	AffiliateID    string
	Amount         int64
	DestinationKey string
}

// BatchFailure reports one withdrawal a batch run could not settle.
type BatchFailure struct {
	WithdrawalID snowflake.ID `json:"withdrawal_id"`
	Reason       string       `json:"reason"`
}

// BatchResult reports exactly which rows a settlement run committed. Admins
// see per-item outcomes, never an opaque "done".
type BatchResult struct {
	BatchID string         `json:"batch_id"`
	Paid    []snowflake.ID `json:"paid"`
	Failed  []BatchFailure `json:"failed"`
}

type Service interface {
	// Request creates a pending withdrawal, reserving the amount out of the
	// affiliate's available balance in the same transaction.
	Request(ctx context.Context, req RequestWithdrawal) (Withdrawal, error)

	// Approve moves pending -> approved. Any other source state is an
	// illegal transition.
	Approve(ctx context.Context, id string) (Withdrawal, error)

	// Reject moves pending -> rejected and restores the reservation.
	Reject(ctx context.Context, id string) (Withdrawal, error)

	// BatchPay settles every withdrawal currently approved, in chunks, under
	// a single batch id and processed_at stamp. Re-running after a partial
	// failure is safe: the approved set is recomputed from current state.
	BatchPay(ctx context.Context) (BatchResult, error)

	ListByStatus(ctx context.Context, status string, limit int) ([]Withdrawal, error)
	ListByAffiliate(ctx context.Context, affiliateID string, limit int) ([]Withdrawal, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrBelowMinimum      = errors.New("below_minimum_withdrawal")
	ErrMissingDestination = errors.New("missing_destination_key")
	ErrNotFound          = errors.New("not_found")
	ErrIllegalTransition = errors.New("illegal_transition")
)
