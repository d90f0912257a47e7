package ports

import "context"

// UsernameResolver maps a player id to a display name.
type UsernameResolver interface {
	// ResolveUsername returns an empty name when the player has none.
	ResolveUsername(ctx context.Context, playerID string) (string, error)
}
