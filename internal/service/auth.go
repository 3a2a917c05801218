package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo          *repo.GormRepo
	Events        events.Publisher
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type SignupInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	PhoneNumber string
	Address     string
}

func validateSignup(in SignupInput) error {
	fe := fieldErrors{}
	switch u := strings.TrimSpace(in.Username); {
	case u == "":
		fe.add("username", "this field is required")
	case len(u) < 3 || len(u) > 150:
		fe.add("username", "must be between 3 and 150 characters")
	case strings.ContainsAny(u, " \t\r\n/"):
		fe.add("username", "may not contain spaces or slashes")
	}
	if e := strings.TrimSpace(in.Email); e != "" {
		if _, err := mail.ParseAddress(e); err != nil {
			fe.add("email", "enter a valid email address")
		}
	}
	if len(in.Password) < 8 {
		fe.add("password", "must be at least 8 characters")
	}
	if len(in.PhoneNumber) > 32 {
		fe.add("phone_number", "must be at most 32 characters")
	}
	return fe.err()
}

// Signup creates a customer or vendor account. Vendors start unapproved and an
// event is published so administrators hear about them.
func (s *AuthService) Signup(ctx context.Context, role string, in SignupInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup", "role", role)

	if role != models.RoleCustomer && role != models.RoleVendor {
		return nil, invalid("role", "must be customer or vendor")
	}
	if err := validateSignup(in); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("signup_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: pwHash,
		Role:         role,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Address:      strings.TrimSpace(in.Address),
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			l.Warn("signup_failed", "reason", "user_exists")
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, user.Username)
		}
		l.Error("signup_error", "reason", "db_error", "error", err)
		return nil, err
	}

	l.Info("signup_success", "user_id", user.ID)
	if user.IsVendor() {
		publish(ctx, s.Events, events.VendorSignedUp, key("user", user.ID), map[string]any{
			"user_id":      user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"display_name": user.DisplayName,
		})
	}
	return &user, nil
}

// CreateStaff creates an administrator account. It is reachable from the
// command line only.
func (s *AuthService) CreateStaff(ctx context.Context, in SignupInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.create_staff")

	if err := validateSignup(in); err != nil {
		return nil, err
	}
	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
		IsStaff:      true,
		DisplayName:  strings.TrimSpace(in.DisplayName),
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, user.Username)
		}
		return nil, err
	}
	l.Info("create_staff_success", "user_id", user.ID)
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil || !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "invalid username or password")
		return nil, nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	pair, refresh, err := s.sign(user)
	if err != nil {
		l.Error("login_error", "reason", "cannot create token", "error", err)
		return nil, nil, err
	}
	if err := s.Repo.SaveRefreshToken(ctx, refresh); err != nil {
		l.Error("login_error", "reason", "cannot store refresh token", "error", err)
		return nil, nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked, so each refresh token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	user, err := s.Repo.GetUserByID(ctx, uint(uid))
	if err != nil {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}

	pair, next, err := s.sign(user)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(refreshToken), next); err != nil {
		l.Warn("refresh_failed", "user_id", user.ID, "reason", "token revoked, expired or unknown", "error", err)
		return nil, fmt.Errorf("%w: refresh token rejected", ErrUnauthorized)
	}
	return pair, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, tokens.Sha256Hex(refreshToken))
}

func (s *AuthService) sign(user *models.User) (*tokens.Pair, *models.RefreshToken, error) {
	accessTTL, refreshTTL := s.AccessTTL, s.RefreshTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	now := time.Now().UTC()
	subject := strconv.FormatUint(uint64(user.ID), 10)

	accessExp := now.Add(accessTTL)
	access, err := tokens.SignAccess(s.AccessSecret, subject, user.Role, accessExp)
	if err != nil {
		return nil, nil, err
	}
	refreshExp := now.Add(refreshTTL)
	refresh, jti, err := tokens.SignRefresh(s.RefreshSecret, subject, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	pair := &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}
	row := &models.RefreshToken{
		UserID:    user.ID,
		JTI:       jti,
		Token:     tokens.Sha256Hex(refresh),
		ExpiresAt: refreshExp,
	}
	return pair, row, nil
}
