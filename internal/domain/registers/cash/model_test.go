package cash

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

func TestKind_CashSign(t *testing.T) {
	assert.Equal(t, 1, KindIncome.CashSign())
	assert.Equal(t, 1, KindDebtCollection.CashSign())
	assert.Equal(t, -1, KindExpense.CashSign())
	assert.Equal(t, -1, KindDebtPayment.CashSign())
}

func TestMovement_Signed(t *testing.T) {
	in := Movement{Kind: KindIncome, Amount: types.MustMoney("40")}
	out := Movement{Kind: KindDebtPayment, Amount: types.MustMoney("40")}

	assert.True(t, in.Signed().Equal(types.MustMoney("40")))
	assert.True(t, out.Signed().Equal(types.MustMoney("-40")))
}

func TestCashRequest_Validate(t *testing.T) {
	cp := id.New()

	tests := []struct {
		name string
		req  CashRequest
		code string
	}{
		{"ok income", CashRequest{Kind: KindIncome, Amount: types.MustMoney("1")}, ""},
		{"ok collection", CashRequest{Kind: KindDebtCollection, Amount: types.MustMoney("1"), CounterpartyID: &cp}, ""},
		{"zero amount", CashRequest{Kind: KindExpense, Amount: types.Zero()}, apperror.CodeInvalidAmount},
		{"negative amount", CashRequest{Kind: KindIncome, Amount: types.MustMoney("-3")}, apperror.CodeInvalidAmount},
		{"collection without counterparty", CashRequest{Kind: KindDebtCollection, Amount: types.MustMoney("1")}, apperror.CodeValidation},
		{"unknown kind", CashRequest{Kind: "GIFT", Amount: types.MustMoney("1")}, apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}
