package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := Newf(KindInvalidMethod, "unknown imputation method %q", "mode")
	wrapped := fmt.Errorf("impute: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrInvalidMethod))
	assert.False(t, stderrors.Is(wrapped, ErrLoadFailure))
	assert.Equal(t, KindInvalidMethod, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("plain")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := stderrors.New("bad header")
	err := New(KindLoadFailure, "all parsers failed", cause).WithContext("path", "x.csv")

	assert.Equal(t, "[LOAD_FAILURE] all parsers failed: bad header", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "x.csv", err.Context["path"])
}

func TestKindFatal(t *testing.T) {
	assert.True(t, KindUnsupportedFormat.Fatal())
	assert.True(t, KindInvalidMethod.Fatal())
	assert.False(t, KindCapabilityUnavailable.Fatal())
	assert.False(t, KindWeightColumnInvalid.Fatal())
	assert.False(t, KindEstimationFailure.Fatal())
}
