package catalog

import (
	"errors"
	"fmt"
)

// FetchError indicates a page fetch failure (network, timeout, or HTTP error).
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the fetch failed with a rate-limit status.
func (e *FetchError) RateLimited() bool {
	return e.Status == 429 || e.Status == 430
}

// ParseError indicates markup that could not be parsed into a listing.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse listing: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MalformedInputError indicates a product URL unusable for key derivation.
// The offending record is dropped; the crawl continues.
type MalformedInputError struct {
	Input string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed product url %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("malformed product url %q", e.Input)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// errorLabel maps an error to a metrics/log category.
func errorLabel(err error) string {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.RateLimited() {
			return "rate_limited"
		}
		return "fetch"
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	var malformed *MalformedInputError
	if errors.As(err, &malformed) {
		return "malformed_input"
	}
	return "other"
}
