package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

func newAuth(t *testing.T) (*AuthService, *events.Recorder) {
	db := testutil.InitTestDB(t)
	rec := &events.Recorder{}
	return &AuthService{
		Repo:          repo.New(db),
		Events:        rec,
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, rec
}

func TestSignupVendorStartsUnapproved(t *testing.T) {
	svc, rec := newAuth(t)

	u, err := svc.Signup(context.Background(), models.RoleVendor, SignupInput{
		Username: "mercy", Email: "mercy@example.test", Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleVendor, u.Role)
	require.False(t, u.VendorApproved)
	require.NotEqual(t, "supersecret", u.PasswordHash)
	require.Equal(t, []string{events.VendorSignedUp}, rec.Types())

	_, err = svc.Signup(context.Background(), models.RoleCustomer, SignupInput{Username: "mercy", Password: "supersecret"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestSignupCustomerNoEvent(t *testing.T) {
	svc, rec := newAuth(t)

	_, err := svc.Signup(context.Background(), models.RoleCustomer, SignupInput{Username: "john", Password: "password1"})
	require.NoError(t, err)
	require.Empty(t, rec.Types())
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newAuth(t)

	_, err := svc.Signup(context.Background(), models.RoleCustomer, SignupInput{Username: "a b", Email: "nope", Password: "short"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "username")
	require.Contains(t, ve.Fields, "email")
	require.Contains(t, ve.Fields, "password")

	_, err = svc.Signup(context.Background(), models.RoleAdmin, SignupInput{Username: "root", Password: "password1"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLoginIssuesTokens(t *testing.T) {
	svc, _ := newAuth(t)
	u, err := svc.Signup(context.Background(), models.RoleCustomer, SignupInput{Username: "tiwonge", Password: "password1"})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "tiwonge", "wrong-password")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Login(context.Background(), "nobody", "password1")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, pair, err := svc.Login(context.Background(), "tiwonge", "password1")
	require.NoError(t, err)

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, svc.AccessSecret)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatUint(uint64(u.ID), 10), claims.Subject)
	require.Equal(t, models.RoleCustomer, claims.Role)
}

func TestRefreshRotatesOnce(t *testing.T) {
	svc, _ := newAuth(t)
	_, err := svc.Signup(context.Background(), models.RoleCustomer, SignupInput{Username: "chisomo", Password: "password1"})
	require.NoError(t, err)
	_, pair, err := svc.Login(context.Background(), "chisomo", "password1")
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Refresh(context.Background(), next.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutRevokes(t *testing.T) {
	svc, _ := newAuth(t)
	_, err := svc.Signup(context.Background(), models.RoleCustomer, SignupInput{Username: "kondwani", Password: "password1"})
	require.NoError(t, err)
	_, pair, err := svc.Login(context.Background(), "kondwani", "password1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.Logout(context.Background(), ""))
}

func TestCreateStaffIsAdmin(t *testing.T) {
	svc, rec := newAuth(t)

	u, err := svc.CreateStaff(context.Background(), SignupInput{Username: "ops", Password: "supersecret"})
	require.NoError(t, err)
	require.True(t, ActorFromUser(u).IsAdmin())
	require.Empty(t, rec.Events())

	_, err = svc.CreateStaff(context.Background(), SignupInput{Username: "ops", Password: "supersecret"})
	require.ErrorIs(t, err, ErrConflict)
}
