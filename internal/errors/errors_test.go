package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamError_Is(t *testing.T) {
	unauthorized := fmt.Errorf("send: %w", &UpstreamError{Status: http.StatusUnauthorized})
	assert.ErrorIs(t, unauthorized, ErrUpstream)
	assert.ErrorIs(t, unauthorized, ErrUnauthorized)
	assert.NotErrorIs(t, unauthorized, ErrNotFound)

	missing := &UpstreamError{Status: http.StatusNotFound, Message: "no such citation"}
	assert.ErrorIs(t, missing, ErrNotFound)
	assert.Equal(t, "upstream returned status 404: no such citation", missing.Error())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 429, StatusOf(fmt.Errorf("wrapped: %w", &UpstreamError{Status: 429})))
	assert.Equal(t, 0, StatusOf(ErrTransport))
	assert.Equal(t, 0, StatusOf(nil))
}

func TestLimitError(t *testing.T) {
	err := fmt.Errorf("create: %w", &LimitError{SessionID: "s1", Max: 3})
	assert.ErrorIs(t, err, ErrLimitReached)

	var limit *LimitError
	assert.True(t, errors.As(err, &limit))
	assert.Equal(t, 3, limit.Max)
}

func TestQuotaExceededIsStorage(t *testing.T) {
	assert.ErrorIs(t, ErrQuotaExceeded, ErrStorage)
}
