package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_CompressesAboveThreshold(t *testing.T) {
	s, err := NewAuditService(nil)
	require.NoError(t, err)
	s.compressThreshold = 64

	small := s.encode(AuditRecord{Changes: []byte(`{"drift":"5"}`)})
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload := append([]byte(`{"note":"`), bytes.Repeat([]byte("a"), 4096)...)
	payload = append(payload, []byte(`"}`)...)

	big := s.encode(AuditRecord{Changes: payload})
	assert.Equal(t, CompressionZstd, big.CompressionAlgo)
	assert.Nil(t, big.Changes)
	assert.Less(t, len(big.ChangesCompressed), len(payload))

	require.NoError(t, s.decode(&big))
	assert.Equal(t, payload, []byte(big.Changes))
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 1*60, int(Backoff(1).Seconds()))
	assert.Equal(t, 4*60, int(Backoff(3).Seconds()))
	assert.Equal(t, 3600, int(Backoff(20).Seconds()))
	assert.Equal(t, 60, int(Backoff(0).Seconds()))
}
