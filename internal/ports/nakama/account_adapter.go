package nakama

import (
	"context"
	"fmt"

	"nukewar/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/api"
)

// AccountAPI is the slice of runtime.NakamaModule used for account profiles.
type AccountAPI interface {
	AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error
}

// UsersAPI is the slice of runtime.NakamaModule used to look up users.
type UsersAPI interface {
	UsersGetId(ctx context.Context, userIDs []string, facebookIDs []string) ([]*api.User, error)
}

// NakamaAccountAdapter implements ports.AccountPort using Nakama's account API.
type NakamaAccountAdapter struct {
	nk AccountAPI
}

// NewNakamaAccountAdapter creates a new account adapter.
func NewNakamaAccountAdapter(nk AccountAPI) *NakamaAccountAdapter {
	return &NakamaAccountAdapter{nk: nk}
}

// UpdateProfile updates the account username and display name in Nakama.
// userID identifies the account to update; username/displayName are applied as provided.
// Returns an error if the Nakama update fails.
func (a *NakamaAccountAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	return a.nk.AccountUpdateId(ctx, userID, username, nil, displayName, "", "", "", "")
}

// NakamaUsernameAdapter resolves player ids that are Nakama user ids to
// their display names. Other ids resolve to an empty name.
type NakamaUsernameAdapter struct {
	nk UsersAPI
}

// NewNakamaUsernameAdapter creates a new username adapter.
func NewNakamaUsernameAdapter(nk UsersAPI) *NakamaUsernameAdapter {
	return &NakamaUsernameAdapter{nk: nk}
}

func (a *NakamaUsernameAdapter) ResolveUsername(ctx context.Context, playerID string) (string, error) {
	if _, err := uuid.Parse(playerID); err != nil {
		return "", nil
	}
	users, err := a.nk.UsersGetId(ctx, []string{playerID}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get user %s: %w", playerID, err)
	}
	if len(users) == 0 {
		return "", nil
	}
	if name := users[0].GetDisplayName(); name != "" {
		return name, nil
	}
	return users[0].GetUsername(), nil
}

var (
	_ ports.AccountPort      = (*NakamaAccountAdapter)(nil)
	_ ports.UsernameResolver = (*NakamaUsernameAdapter)(nil)
)
