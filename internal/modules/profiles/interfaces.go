package profiles

import (
	"context"
	"encoding/json"

	"audiencehub/internal/klaviyo"
)

// marketingClient is the slice of the Klaviyo client the profiles module
// depends on.
type marketingClient interface {
	ListProfilesRaw(ctx context.Context) (json.RawMessage, error)
	CreateProfile(ctx context.Context, email, firstName, lastName string) (klaviyo.Profile, error)
	SearchProfileByEmail(ctx context.Context, email string) (klaviyo.Profile, error)
	SubscribeLegacy(ctx context.Context, listID, email string) ([]byte, error)
}
