package submission

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var ErrNotFound = errors.New("submission not found")

// Submission records the checkout URL issued for one form nonce so that a
// re-posted form is sent to the same checkout. A claimed submission whose
// API call has not finished yet has an empty RedirectURL.
type Submission struct {
	Nonce         string
	MarketplaceID string
	TextHash      string
	RedirectURL   string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Pending reports whether the submission was claimed but not completed.
func (s *Submission) Pending() bool {
	return s.RedirectURL == ""
}

// Expired reports whether the record is past its expiry at now.
func (s *Submission) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// HashText returns the digest stored in place of the submitted text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
