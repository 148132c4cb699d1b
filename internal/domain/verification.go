package domain

import "time"

// VerificationCode is one outstanding email one-time code. Exactly one live
// entry exists per address: issuing a new code overwrites the previous one.
// A consumed or expired entry never validates again.
type VerificationCode struct {
	Address   string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// Expired reports whether the code is past its TTL at the given instant.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
