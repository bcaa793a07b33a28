package message

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
)

func TestClassify(t *testing.T) {
	status := func(code int) error { return &app_errors.UpstreamError{Status: code} }

	tests := []struct {
		name     string
		err      error
		inactive bool
		want     string
	}{
		{"quota", status(http.StatusTooManyRequests), false, TextQuotaExhausted},
		{"credential", status(http.StatusUnauthorized), false, TextBadCredential},
		{"forbidden", status(http.StatusForbidden), false, TextAccessDenied},
		{"inactive agent", status(http.StatusForbidden), true, TextInactiveAgent},
		{"not found", status(http.StatusNotFound), false, TextNotFound},
		{"bad request", status(http.StatusBadRequest), false, TextBadRequest},
		{"server", status(http.StatusInternalServerError), false, TextServerError},
		{"bad gateway", status(http.StatusBadGateway), false, TextGeneric},
		{"network", errors.New("connection refused"), false, TextGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err, tt.inactive))
		})
	}

	assert.Contains(t, Classify(status(http.StatusTooManyRequests), false), "quota")
	assert.Contains(t, Classify(status(http.StatusUnauthorized), false), "API key")
}
