package cash_test

import (
	"os"
	"testing"

	"shopledger/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.Nop())
	os.Exit(m.Run())
}
