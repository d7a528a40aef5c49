package user

import "context"

// API is the external user collaborator consumed by the page.
type API interface {
	// Fetch returns the current user.
	Fetch(ctx context.Context) (*User, error)
	// Authorize returns a fresh payment provider authorization URL.
	Authorize(ctx context.Context) (string, error)
}
