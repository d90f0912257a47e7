package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Identity is the public profile of the CPU opponent.
type Identity struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarIndex int    `json:"avatar_index"`
}

var defaultIdentity = Identity{
	UserID:      "cpu",
	Username:    "cpu",
	DisplayName: "CPU",
}

var (
	identity     = defaultIdentity
	identityOnce sync.Once
	identityErr  error
)

// LoadIdentity reads the CPU profile from path. Only the first call reads
// the file.
func LoadIdentity(path string) error {
	identityOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			identityErr = fmt.Errorf("failed to read cpu identity: %w", err)
			return
		}
		loaded, err := parseIdentity(data)
		if err != nil {
			identityErr = err
			return
		}
		identity = loaded
	})
	return identityErr
}

// parseIdentity decodes a CPU profile. A missing display name falls back to
// the username; other missing fields keep their defaults.
func parseIdentity(data []byte) (Identity, error) {
	var loaded Identity
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Identity{}, fmt.Errorf("failed to unmarshal cpu identity: %w", err)
	}
	if loaded.UserID == "" {
		loaded.UserID = defaultIdentity.UserID
	}
	if loaded.Username == "" {
		loaded.Username = defaultIdentity.Username
	}
	if loaded.DisplayName == "" {
		loaded.DisplayName = loaded.Username
	}
	return loaded, nil
}

// CPU returns the CPU identity.
func CPU() Identity {
	return identity
}

// IsBot reports whether userID is the CPU.
func IsBot(userID string) bool {
	return userID != "" && userID == identity.UserID
}
