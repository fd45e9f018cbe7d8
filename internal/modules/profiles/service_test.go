package profiles

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"audiencehub/internal/klaviyo"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) ListProfilesRaw(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockClient) CreateProfile(ctx context.Context, email, firstName, lastName string) (klaviyo.Profile, error) {
	args := m.Called(ctx, email, firstName, lastName)
	return args.Get(0).(klaviyo.Profile), args.Error(1)
}

func (m *MockClient) SearchProfileByEmail(ctx context.Context, email string) (klaviyo.Profile, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(klaviyo.Profile), args.Error(1)
}

func (m *MockClient) SubscribeLegacy(ctx context.Context, listID, email string) ([]byte, error) {
	args := m.Called(ctx, listID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func conflictErr() *klaviyo.APIError {
	return &klaviyo.APIError{StatusCode: 409, Message: "already exists"}
}

func TestUpsertCreatesAndSubscribes(t *testing.T) {
	client := new(MockClient)
	created := klaviyo.Profile{ID: "p1", Email: "a@b.com"}
	client.On("CreateProfile", mock.Anything, "a@b.com", "Ada", "Lovelace").Return(created, nil)
	client.On("SubscribeLegacy", mock.Anything, "L1", "a@b.com").Return([]byte(`[{"email":"a@b.com"}]`), nil)
	client.On("SearchProfileByEmail", mock.Anything, "a@b.com").
		Return(klaviyo.Profile{ID: "p1", Status: klaviyo.StatusPending}, nil)

	svc := NewService(client, nil)
	result, err := svc.Upsert(context.Background(), UpsertRequest{
		Email: "a@b.com", FirstName: "Ada", LastName: "Lovelace", Subscribe: true, ListID: "L1",
	})

	require.NoError(t, err)
	assert.Equal(t, "p1", result.Profile.ID)
	assert.True(t, result.Subscribed)
	assert.Empty(t, result.Warning)
	assert.JSONEq(t, `[{"email":"a@b.com"}]`, string(result.SubscribeResult))
	assert.Equal(t, klaviyo.StatusPending, result.MarketingStatus)
	client.AssertExpectations(t)
}

func TestUpsertConflictFallsBackToSearch(t *testing.T) {
	client := new(MockClient)
	client.On("CreateProfile", mock.Anything, "a@b.com", "", "").
		Return(klaviyo.Profile{}, conflictErr())
	existing := klaviyo.Profile{ID: "p7", Email: "a@b.com", Status: klaviyo.StatusSubscribed}
	client.On("SearchProfileByEmail", mock.Anything, "a@b.com").Return(existing, nil)

	svc := NewService(client, nil)
	result, err := svc.Upsert(context.Background(), UpsertRequest{Email: "a@b.com"})

	require.NoError(t, err)
	assert.Equal(t, "p7", result.Profile.ID)
	// one call resolves the conflict, one reads the marketing status
	client.AssertNumberOfCalls(t, "SearchProfileByEmail", 2)
	client.AssertNotCalled(t, "SubscribeLegacy", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpsertFallbackFailureIsDistinct(t *testing.T) {
	client := new(MockClient)
	client.On("CreateProfile", mock.Anything, "a@b.com", "", "").
		Return(klaviyo.Profile{}, conflictErr())
	client.On("SearchProfileByEmail", mock.Anything, "a@b.com").
		Return(klaviyo.Profile{}, klaviyo.ErrProfileNotFound)

	svc := NewService(client, nil)
	_, err := svc.Upsert(context.Background(), UpsertRequest{Email: "a@b.com"})

	assert.ErrorIs(t, err, ErrUpsertFallback)
}

func TestUpsertCreateFailurePropagatesRemoteError(t *testing.T) {
	client := new(MockClient)
	remoteErr := &klaviyo.APIError{StatusCode: 400, Message: "invalid email", Body: json.RawMessage(`{"errors":[]}`)}
	client.On("CreateProfile", mock.Anything, "bad", "", "").
		Return(klaviyo.Profile{}, remoteErr)

	svc := NewService(client, nil)
	_, err := svc.Upsert(context.Background(), UpsertRequest{Email: "bad"})

	var apiErr *klaviyo.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	client.AssertNotCalled(t, "SearchProfileByEmail", mock.Anything, mock.Anything)
}

func TestUpsertSubscribeFailureIsNonFatal(t *testing.T) {
	client := new(MockClient)
	client.On("CreateProfile", mock.Anything, "a@b.com", "", "").
		Return(klaviyo.Profile{ID: "p1"}, nil)
	client.On("SubscribeLegacy", mock.Anything, "L1", "a@b.com").
		Return(nil, &klaviyo.APIError{StatusCode: 400, Message: "bad list", Body: json.RawMessage(`{"detail":"bad list"}`)})
	client.On("SearchProfileByEmail", mock.Anything, "a@b.com").
		Return(klaviyo.Profile{ID: "p1", Status: klaviyo.StatusUnknown}, nil)

	svc := NewService(client, nil)
	result, err := svc.Upsert(context.Background(), UpsertRequest{Email: "a@b.com", Subscribe: true, ListID: "L1"})

	require.NoError(t, err)
	assert.False(t, result.Subscribed)
	assert.NotEmpty(t, result.Warning)
	assert.JSONEq(t, `{"detail":"bad list"}`, string(result.SubscribeResult))
}

func TestUpsertSkipsSubscribeWithoutListID(t *testing.T) {
	client := new(MockClient)
	client.On("CreateProfile", mock.Anything, "a@b.com", "", "").
		Return(klaviyo.Profile{ID: "p1"}, nil)
	client.On("SearchProfileByEmail", mock.Anything, "a@b.com").
		Return(klaviyo.Profile{ID: "p1"}, nil)

	svc := NewService(client, nil)
	result, err := svc.Upsert(context.Background(), UpsertRequest{Email: "a@b.com", Subscribe: true})

	require.NoError(t, err)
	assert.False(t, result.Subscribed)
	assert.Empty(t, result.Warning)
	client.AssertNotCalled(t, "SubscribeLegacy", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpsertStatusReadFailureIsSwallowed(t *testing.T) {
	client := new(MockClient)
	client.On("CreateProfile", mock.Anything, "a@b.com", "", "").
		Return(klaviyo.Profile{ID: "p1"}, nil)
	client.On("SearchProfileByEmail", mock.Anything, "a@b.com").
		Return(klaviyo.Profile{}, &klaviyo.APIError{StatusCode: 500})

	svc := NewService(client, nil)
	result, err := svc.Upsert(context.Background(), UpsertRequest{Email: "a@b.com"})

	require.NoError(t, err)
	assert.Equal(t, klaviyo.SubscriptionStatus(""), result.MarketingStatus)
}
