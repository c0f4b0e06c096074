package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Typed clone failures so callers can report them without parsing strings.
type AuthError struct {
	URL string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("clone auth error for %s: %v", e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	URL string
	Err error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("clone not found %s: %v", e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		return &AuthError{URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{URL: url, Err: err}
	default:
		return fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
}

// transient reports whether a clone failure is worth retrying.
func transient(err error) bool {
	var authErr *AuthError
	var notFound *NotFoundError
	switch {
	case errors.As(err, &authErr), errors.As(err, &notFound):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
