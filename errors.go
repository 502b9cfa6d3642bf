package main

import (
	"errors"
	"fmt"
)

var (
	ErrQueueMissing      = errors.New("queue file not found")
	ErrQueueLocked       = errors.New("queue file is locked by another run")
	ErrProfileLaunch     = errors.New("browser could not be launched with primary or fallback profile")
	ErrFormUnreachable   = errors.New("post form unreachable")
	ErrAuthRequired      = errors.New("authentication required")
	ErrAuthTimeout       = errors.New("login not detected before timeout")
	ErrSubmitUnconfirmed = errors.New("submission not confirmed by resulting URL")
	ErrXPathInFrame      = errors.New("xpath selectors cannot be scoped to a frame")
)

// ElementNotFoundError is returned when a mandatory form element is absent
type ElementNotFoundError struct {
	Field string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("%s field not found on page", e.Field)
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}
