package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"audiencehub/internal/klaviyo"
)

type Service struct {
	client marketingClient
	logger *slog.Logger
}

func NewService(client marketingClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// Upsert runs the create-or-find sequence: create the profile, fall back to a
// search by exact email on a conflict, optionally fire the legacy list
// subscription, then re-read the marketing status best-effort. Every step is
// sequential and nothing is retried.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (UpsertResult, error) {
	profile, err := s.client.CreateProfile(ctx, req.Email, req.FirstName, req.LastName)
	if err != nil {
		var apiErr *klaviyo.APIError
		if errors.As(err, &apiErr) && apiErr.IsConflict() {
			profile, err = s.client.SearchProfileByEmail(ctx, req.Email)
			if err != nil {
				return UpsertResult{}, fmt.Errorf("%w: %v", ErrUpsertFallback, err)
			}
		} else {
			return UpsertResult{}, err
		}
	}

	result := UpsertResult{Profile: profile}

	if req.Subscribe && req.ListID != "" {
		raw, err := s.client.SubscribeLegacy(ctx, req.ListID, req.Email)
		if err != nil {
			// Non-fatal: the profile exists either way, so the overall
			// request still succeeds with a warning attached.
			result.Warning = "list subscription failed: " + err.Error()
			var apiErr *klaviyo.APIError
			if errors.As(err, &apiErr) {
				result.SubscribeResult = apiErr.Body
			}
			s.logger.Warn("list subscription failed",
				"list_id", req.ListID, "error", err)
		} else {
			result.Subscribed = true
			result.SubscribeResult = klaviyo.RawJSON(raw)
		}
	}

	// Best-effort read to report double-opt-in state; failures are swallowed
	// and the status stays absent.
	if current, err := s.client.SearchProfileByEmail(ctx, req.Email); err == nil {
		result.MarketingStatus = current.Status
	} else {
		s.logger.Debug("marketing status read failed", "error", err)
	}

	return result, nil
}
