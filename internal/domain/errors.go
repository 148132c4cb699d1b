package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking
// provider error text, tokens or repository paths to the client.
var (
	ErrValidation       = errors.New("validation failed")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrIdentityMismatch = errors.New("identity mismatch")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstream         = errors.New("upstream unavailable")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
)

// Verification-store outcomes. Both resolve to ErrAuthFailed at the HTTP
// boundary so callers cannot distinguish a wrong code from an expired one.
var (
	ErrCodeInvalid = fmt.Errorf("code invalid: %w", ErrAuthFailed)
	ErrCodeExpired = fmt.Errorf("code expired: %w", ErrAuthFailed)
)

// OAuth exchange outcomes. A rejected authorization code is an auth failure
// (the caller must restart the OAuth flow); anything else is upstream trouble.
var (
	ErrOAuthInvalidCode = fmt.Errorf("oauth code rejected: %w", ErrAuthFailed)
	ErrOAuthExchange    = fmt.Errorf("oauth exchange failed: %w", ErrUpstream)
)

// Repository-publisher outcomes.
var (
	ErrRepoWrite    = fmt.Errorf("repository write failed: %w", ErrUpstream)
	ErrPathConflict = fmt.Errorf("repository path conflict: %w", ErrUpstream)
)

// PartialPublishError is the terminal state of a submission whose repository
// writes failed after at least one file was already committed. The repository
// has no multi-file atomic commit, and deleting already-committed files would
// introduce its own failure modes, so the committed paths are surfaced for
// manual remediation instead of being rolled back.
type PartialPublishError struct {
	Committed  []string
	FailedPath string
	Cause      error
}

func (e *PartialPublishError) Error() string {
	return fmt.Sprintf("publish incomplete: %d file(s) committed, failed at %s: %v",
		len(e.Committed), e.FailedPath, e.Cause)
}

func (e *PartialPublishError) Unwrap() error { return e.Cause }
