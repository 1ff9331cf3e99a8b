package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorLabel(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rate limited", err: &FetchError{Status: 429, Err: cause}, want: "rate_limited"},
		{name: "blocked status", err: &FetchError{Status: 430, Err: cause}, want: "rate_limited"},
		{name: "plain fetch", err: &FetchError{Status: 500, Err: cause}, want: "fetch"},
		{name: "parse", err: &ParseError{Err: cause}, want: "parse"},
		{name: "malformed", err: &MalformedInputError{Input: "x", Err: cause}, want: "malformed_input"},
		{name: "wrapped fetch", err: fmt.Errorf("probe: %w", &FetchError{Status: 503, Err: cause}), want: "fetch"},
		{name: "unclassified", err: cause, want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorLabel(tt.err))
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("connection reset")

	fetchErr := &FetchError{URL: "https://shop.test", Status: 502, Err: cause}
	assert.ErrorIs(t, fetchErr, cause)
	assert.Contains(t, fetchErr.Error(), "status 502")

	parseErr := &ParseError{Err: cause}
	assert.ErrorIs(t, parseErr, cause)

	malformed := &MalformedInputError{Input: "listing/1", Err: cause}
	assert.ErrorIs(t, malformed, cause)
	assert.Contains(t, malformed.Error(), `"listing/1"`)
}
