package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrder_TransitionTo(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	o := &Order{Status: StatusPending}

	require.NoError(t, o.TransitionTo(StatusCompleted, at))
	assert.Equal(t, StatusCompleted, o.Status)
	require.NotNil(t, o.CompletedAt)
	assert.Equal(t, at, *o.CompletedAt)

	err := o.TransitionTo(StatusCancelled, at)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	assert.Equal(t, StatusCompleted, o.Status)
}

func TestValidatePaid(t *testing.T) {
	total := types.MustMoney("100")

	assert.NoError(t, validatePaid(types.Zero(), total))
	assert.NoError(t, validatePaid(total, total))
	assert.True(t, apperror.HasCode(validatePaid(types.MustMoney("-1"), total), apperror.CodeInvalidAmount))
	assert.True(t, apperror.HasCode(validatePaid(types.MustMoney("100.01"), total), apperror.CodeInvalidAmount))
}

func TestValidateLines(t *testing.T) {
	assert.True(t, apperror.HasCode(validateLines(nil), apperror.CodeValidation))
	assert.True(t, apperror.HasCode(validateLines([]LineInput{{Quantity: 0}}), apperror.CodeInvalidAmount))
	assert.NoError(t, validateLines([]LineInput{{Quantity: 2}}))
}

func TestValidateUnitPrice(t *testing.T) {
	zero := types.Zero()
	ten := types.MustMoney("10")

	assert.True(t, apperror.HasCode(validateUnitPrice(0, LineInput{Quantity: 1, UnitPrice: &zero}), apperror.CodeInvalidAmount))
	assert.NoError(t, validateUnitPrice(0, LineInput{Quantity: 1, UnitPrice: &ten}))
	assert.NoError(t, validateUnitPrice(0, LineInput{Quantity: 1}))
}

func TestByProduct_OrdersLocksAndKeepsInput(t *testing.T) {
	low := id.MustParse("00000000-0000-7000-8000-000000000001")
	high := id.MustParse("00000000-0000-7000-8000-000000000002")
	items := []Item{
		{LineNo: 1, ProductID: high},
		{LineNo: 2, ProductID: low},
		{LineNo: 3, ProductID: high},
	}

	sorted := byProduct(items)

	var lines []int
	for _, it := range sorted {
		lines = append(lines, it.LineNo)
	}
	assert.Equal(t, []int{2, 1, 3}, lines)
	assert.Equal(t, 1, items[0].LineNo)
}
