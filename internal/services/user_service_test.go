package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pixora/credits-backend/internal/dto"
	"github.com/pixora/credits-backend/internal/identity"
	"github.com/pixora/credits-backend/internal/models"
	"github.com/pixora/credits-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrant = 10

func snapshotFor(id string) *identity.ProfileSnapshot {
	return &identity.ProfileSnapshot{
		ExternalID: id,
		Email:      id + "@example.com",
		Username:   "user_" + id,
		Photo:      "https://img.example.com/" + id,
		FirstName:  "Ada",
		LastName:   "Lovelace",
	}
}

func TestUserService_Resolve_ProvisionsOnFirstAccess(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{snapshots: map[string]*identity.ProfileSnapshot{
		"ext_1": snapshotFor("ext_1"),
	}}
	svc := services.NewUserService(db, fetcher, testGrant)

	user, err := svc.Resolve(context.Background(), "ext_1")
	require.NoError(t, err)

	assert.Equal(t, "ext_1", user.ExternalID)
	assert.Equal(t, "ext_1@example.com", user.Email)
	assert.Equal(t, "user_ext_1", user.Username)
	assert.Equal(t, int64(testGrant), user.CreditBalance)
	assert.NotEqual(t, uuid.Nil, user.ID)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUserService_Resolve_ExistingSkipsProviderFetch(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{snapshots: map[string]*identity.ProfileSnapshot{
		"ext_1": snapshotFor("ext_1"),
	}}
	svc := services.NewUserService(db, fetcher, testGrant)

	first, err := svc.Resolve(context.Background(), "ext_1")
	require.NoError(t, err)

	second, err := svc.Resolve(context.Background(), "ext_1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, fetcher.fetchCount())
}

func TestUserService_Resolve_IdentityNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db, &stubFetcher{}, testGrant)

	_, err := svc.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, identity.ErrNotFound)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUserService_Resolve_ProviderErrorPropagates(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{err: identity.ErrProvider}
	svc := services.NewUserService(db, fetcher, testGrant)

	_, err := svc.Resolve(context.Background(), "ext_1")
	assert.ErrorIs(t, err, identity.ErrProvider)
}

func TestUserService_Resolve_InsertRaceConvergesOnWinner(t *testing.T) {
	db := newTestDB(t)
	winnerID := uuid.New()
	fetcher := &stubFetcher{
		snapshots: map[string]*identity.ProfileSnapshot{
			"ext_1": snapshotFor("ext_1"),
		},
		// A concurrent resolver wins the insert while this one is still
		// talking to the identity provider.
		onFetch: func(externalID string) {
			db.Create(&models.User{
				ID:            winnerID,
				ExternalID:    externalID,
				Email:         "winner@example.com",
				CreditBalance: testGrant,
			})
		},
	}
	svc := services.NewUserService(db, fetcher, testGrant)

	user, err := svc.Resolve(context.Background(), "ext_1")
	require.NoError(t, err)

	assert.Equal(t, winnerID, user.ID)
	assert.Equal(t, "winner@example.com", user.Email)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUserService_Resolve_ConcurrentFirstAccess(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{snapshots: map[string]*identity.ProfileSnapshot{
		"ext_1": snapshotFor("ext_1"),
	}}
	svc := services.NewUserService(db, fetcher, testGrant)

	const resolvers = 8
	results := make([]*models.User, resolvers)
	errs := make([]error, resolvers)

	var wg sync.WaitGroup
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Resolve(context.Background(), "ext_1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < resolvers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUserService_Resolve_PartialSnapshotUsernameFallback(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{snapshots: map[string]*identity.ProfileSnapshot{
		"user_2xKj9fQ3": {ExternalID: "user_2xKj9fQ3"},
	}}
	svc := services.NewUserService(db, fetcher, testGrant)

	user, err := svc.Resolve(context.Background(), "user_2xKj9fQ3")
	require.NoError(t, err)

	assert.Equal(t, "user_2xK", user.Username)
	assert.Empty(t, user.Email)
	assert.Equal(t, int64(testGrant), user.CreditBalance)
}

func TestUserService_Create_Duplicate(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db, &stubFetcher{}, testGrant)

	_, err := svc.Create(&dto.CreateUserRequest{ExternalID: "ext_1", Email: "a@b.com"})
	require.NoError(t, err)

	_, err = svc.Create(&dto.CreateUserRequest{ExternalID: "ext_1", Email: "other@b.com"})
	assert.ErrorIs(t, err, services.ErrUserExists)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{snapshots: map[string]*identity.ProfileSnapshot{
		"ext_1": snapshotFor("ext_1"),
	}}
	svc := services.NewUserService(db, fetcher, testGrant)

	created, err := svc.Resolve(context.Background(), "ext_1")
	require.NoError(t, err)

	newEmail := "renamed@example.com"
	updated, err := svc.UpdateProfile("ext_1", &dto.UpdateProfileRequest{Email: &newEmail})
	require.NoError(t, err)

	assert.Equal(t, newEmail, updated.Email)
	assert.Equal(t, created.Username, updated.Username)
	assert.Equal(t, created.CreditBalance, updated.CreditBalance)
}

func TestUserService_UpdateProfile_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db, &stubFetcher{}, testGrant)

	email := "a@b.com"
	_, err := svc.UpdateProfile("ghost", &dto.UpdateProfileRequest{Email: &email})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestUserService_DeleteThenResolveProvisionsFresh(t *testing.T) {
	db := newTestDB(t)
	fetcher := &stubFetcher{snapshots: map[string]*identity.ProfileSnapshot{
		"ext_1": snapshotFor("ext_1"),
	}}
	svc := services.NewUserService(db, fetcher, testGrant)
	credits := services.NewCreditService(db)

	original, err := svc.Resolve(context.Background(), "ext_1")
	require.NoError(t, err)

	_, err = credits.Adjust(original.ID, 500)
	require.NoError(t, err)

	deleted, err := svc.Delete("ext_1")
	require.NoError(t, err)
	assert.Equal(t, int64(testGrant+500), deleted.CreditBalance)

	_, err = credits.Adjust(original.ID, -1)
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	fresh, err := svc.Resolve(context.Background(), "ext_1")
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, fresh.ID)
	assert.Equal(t, int64(testGrant), fresh.CreditBalance)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewUserService(db, &stubFetcher{}, testGrant)

	_, err := svc.Delete("ghost")
	assert.True(t, errors.Is(err, services.ErrUserNotFound))
}
