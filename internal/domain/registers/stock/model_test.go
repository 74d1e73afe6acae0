package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
)

func TestSignedDelta(t *testing.T) {
	tests := []struct {
		kind Kind
		qty  int64
		want int64
	}{
		{KindIn, 5, 5},
		{KindOut, 5, -5},
		{KindLost, 2, -2},
		{KindDamaged, 1, -1},
		{KindAdjustment, -3, -3},
		{KindAdjustment, 4, 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := SignedDelta(tt.kind, tt.qty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignedDelta_Rejections(t *testing.T) {
	_, err := SignedDelta(KindOut, -5)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = SignedDelta(KindIn, 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = SignedDelta(KindAdjustment, 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = SignedDelta(Kind("STOLEN"), 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
