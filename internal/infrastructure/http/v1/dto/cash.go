package dto

import (
	"shopledger/internal/core/types"
	"shopledger/internal/domain/registers/cash"
)

// SettlementRequest settles part of a counterparty's debt.
type SettlementRequest struct {
	CounterpartyID string      `json:"counterpartyId" binding:"required"`
	Kind           string      `json:"kind" binding:"required,oneof=DEBT_COLLECTION DEBT_PAYMENT"`
	Amount         types.Money `json:"amount"`
	Description    string      `json:"description,omitempty"`
}

// CashMovementRequest records income or expense without a counterparty.
type CashMovementRequest struct {
	Kind        string      `json:"kind" binding:"required,oneof=INCOME EXPENSE"`
	Amount      types.Money `json:"amount"`
	Description string      `json:"description,omitempty"`
}

// CashBalanceResponse is the drawer balance.
type CashBalanceResponse struct {
	CashOnHand types.Money `json:"cashOnHand"`
}

// CashResultResponse is a recorded movement and the resulting debt, if any.
type CashResultResponse = cash.Result
