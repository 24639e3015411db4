package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/profile"
	"securemate/backend/internal/domain/profile/profiletest"
)

type names struct {
	synced map[string]string
	err    error
}

func (n *names) SyncFullName(_ context.Context, uid, fullName string) error {
	if n.err != nil {
		return n.err
	}
	n.synced[uid] = fullName
	return nil
}

func ptr(s string) *string { return &s }

var user = &account.User{ID: "u1", Email: "asha@example.com", Metadata: account.Metadata{FullName: "Asha Rao"}}

func TestEnsure_CreatesExactlyOnce(t *testing.T) {
	repo := profiletest.NewRepo()
	svc := profile.NewService(repo, nil, nil)

	p, err := svc.Ensure(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "Asha Rao", p.FullName)
	assert.Empty(t, p.Phone)

	_, err = svc.Ensure(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Creates)
	assert.Equal(t, 1, repo.Count())
}

func TestEnsure_ReturnsExisting(t *testing.T) {
	repo := profiletest.NewRepo(profile.Profile{ID: "u1", FullName: "Asha R.", Phone: "+91 98"})
	svc := profile.NewService(repo, nil, nil)

	p, err := svc.Ensure(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Asha R.", p.FullName)
	assert.Zero(t, repo.Creates)
}

func TestEnsure_BackendErrorIsNotTreatedAsMissing(t *testing.T) {
	repo := profiletest.NewRepo()
	repo.GetErr = errors.New("rpc error: code = PermissionDenied")
	svc := profile.NewService(repo, nil, nil)

	_, err := svc.Ensure(context.Background(), user)
	assert.Error(t, err)
	assert.Zero(t, repo.Creates)
}

func TestUpdate_MergesExactlySentFields(t *testing.T) {
	repo := profiletest.NewRepo(profile.Profile{ID: "u1", FullName: "Asha Rao", Phone: "111"})
	n := &names{synced: map[string]string{}}
	svc := profile.NewService(repo, n, nil)

	got, err := svc.Update(context.Background(), user, profile.UpdateInput{Phone: ptr(" +91 9876543210 ")})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.FullName)
	assert.Equal(t, "+91 9876543210", got.Phone)

	require.Len(t, repo.Updates, 1)
	sent := repo.Updates[0]
	assert.Equal(t, "+91 9876543210", sent["phone"])
	assert.NotContains(t, sent, "full_name")
	assert.Empty(t, n.synced)

	got, err = svc.Update(context.Background(), user, profile.UpdateInput{FullName: ptr("Asha K. Rao")})
	require.NoError(t, err)
	assert.Equal(t, "Asha K. Rao", got.FullName)
	assert.Equal(t, "+91 9876543210", got.Phone)
	assert.Equal(t, "Asha K. Rao", n.synced["u1"])
}

func TestUpdate_SyncFailureIsLoggedOnly(t *testing.T) {
	repo := profiletest.NewRepo(profile.Profile{ID: "u1", FullName: "Asha Rao"})
	svc := profile.NewService(repo, &names{err: errors.New("claims write failed")}, nil)

	got, err := svc.Update(context.Background(), user, profile.UpdateInput{FullName: ptr("Asha")})
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.FullName)
}

func TestUpdate_Validation(t *testing.T) {
	svc := profile.NewService(profiletest.NewRepo(), nil, nil)

	_, err := svc.Update(context.Background(), user, profile.UpdateInput{})
	assert.True(t, profile.IsErrBadRequest(err))

	_, err = svc.Update(context.Background(), user, profile.UpdateInput{FullName: ptr("   ")})
	assert.True(t, profile.IsErrBadRequest(err))

	_, err = svc.Update(context.Background(), nil, profile.UpdateInput{Phone: ptr("1")})
	assert.True(t, profile.IsErrUnauthorized(err))
}

func TestMerge(t *testing.T) {
	prev := profile.Profile{ID: "u1", FullName: "A", Phone: "1"}
	assert.Equal(t, prev, profile.Merge(prev, profile.UpdateInput{}))
	assert.Equal(t, profile.Profile{ID: "u1", FullName: "A", Phone: ""}, profile.Merge(prev, profile.UpdateInput{Phone: ptr("")}))
}
