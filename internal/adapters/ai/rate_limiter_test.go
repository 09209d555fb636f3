package ai

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"atlas/pkg/errors"
)

func TestRateLimitErrorMatchesSentinel(t *testing.T) {
	err := &RateLimitError{
		Provider: ProviderNameOpenAI,
		Limit:    60,
		Err:      context.DeadlineExceeded,
	}

	assert.True(t, stderrors.Is(err, errors.ErrRateLimitExceeded))
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "openai")
}

func TestNewProviderLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, NewProviderLimiter(0, 0).Limit())

	l := NewProviderLimiter(60, 0)
	assert.Equal(t, rate.Limit(1), l.Limit())
	assert.Equal(t, 6, l.Burst())
}
