package storage

import "context"

// Keys used by the session client.
const (
	KeyUserToken         = "userToken"         // raw bearer token
	KeyUserInfo          = "userInfo"          // JSON encoded users.Profile
	KeyHasSeenOnboarding = "hasSeenOnboarding" // "true" once onboarding has been shown
)

// Store is a durable key-value store that survives process restarts.
// Get reports false when the key is absent. Removing an absent key is not an error.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Remove(ctx context.Context, key string) error
}
