package domain

import (
	"context"
	"errors"

	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
)

// ProcessPurchaseRequest is the signal from the payment collaborator that a
// purchase has been confirmed as paid. The engine trusts it and never
// re-verifies payment, but it must survive redelivery of the same purchase.
type ProcessPurchaseRequest struct {
	PurchaseID  string
	AffiliateID string
	Scope       string
	BaseAmount  int64
}

type ProcessPurchaseResult struct {
	PurchaseID       string                         `json:"purchase_id"`
	AlreadyProcessed bool                           `json:"already_processed"`
	Credits          []ledgerdomain.CommissionEvent `json:"credits"`
}

type Service interface {
	// ProcessConfirmedPurchase walks the purchaser's upline and credits each
	// generation per the scope's rule table, all-or-nothing. Reprocessing a
	// purchase id returns the prior credits with AlreadyProcessed set.
	ProcessConfirmedPurchase(ctx context.Context, req ProcessPurchaseRequest) (ProcessPurchaseResult, error)

	// EventsByPurchase lists the credits recorded for one purchase.
	EventsByPurchase(ctx context.Context, purchaseID string) ([]ledgerdomain.CommissionEvent, error)
}

var (
	ErrInvalidPurchaseID = errors.New("invalid_purchase_id")
	ErrInvalidBaseAmount = errors.New("invalid_base_amount")
)
