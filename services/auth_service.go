package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"taskmanager/models"
	"taskmanager/store"
	"taskmanager/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type SignUpInput struct {
	Name             string `json:"name" validate:"required,max=100"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8"`
	ProfileImageURL  string `json:"profileImageUrl" validate:"omitempty,url"`
	AdminInviteToken string `json:"adminInviteToken"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput follows patch semantics: nil or empty fields are kept.
type UpdateProfileInput struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// Session is an authenticated user with a freshly issued token.
type Session struct {
	User  *models.User
	Token string
}

type AuthService struct {
	users            store.UserStore
	tokens           *utils.TokenManager
	blacklist        utils.TokenBlacklist
	adminInviteToken string
	logger           logrus.FieldLogger
	now              func() time.Time
}

func NewAuthService(users store.UserStore, tokens *utils.TokenManager, blacklist utils.TokenBlacklist, adminInviteToken string, logger logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:            users,
		tokens:           tokens,
		blacklist:        blacklist,
		adminInviteToken: adminInviteToken,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	email, err := utils.NormalizeEmail(in.Email)
	if err != nil {
		return nil, ValidationError("email must be a valid email")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, Conflict("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, Internal("Failed to check existing user", err)
	}

	role := models.RoleMember
	if s.adminInviteToken != "" &&
		subtle.ConstantTimeCompare([]byte(in.AdminInviteToken), []byte(s.adminInviteToken)) == 1 {
		role = models.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal("Failed to hash password", err)
	}

	now := s.now()
	user := &models.User{
		Name:            strings.TrimSpace(in.Name),
		Email:           email,
		PasswordHash:    string(hash),
		Role:            role,
		ProfileImageURL: in.ProfileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("User already exists")
		}
		return nil, Internal("Failed to create user", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return s.session(user)
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, AuthError("Invalid email or password", nil)
		}
		return nil, Internal("Failed to load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, AuthError("Invalid email or password", nil)
	}

	return s.session(user)
}

// SignOut revokes the token identified by claims until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, claims *utils.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return Internal("Failed to revoke token", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user. A blacklist outage is
// logged and the token is accepted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, AuthError("Not authorized, token failed", err)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.WithError(err).Warn("Token blacklist unavailable, accepting token")
	}
	if revoked {
		return nil, nil, AuthError("Not authorized, token revoked", nil)
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, AuthError("Not authorized, user not found", nil)
		}
		return nil, nil, Internal("Failed to load user", err)
	}
	return user, claims, nil
}

func (s *AuthService) Profile(ctx context.Context, r Requester) (*models.User, error) {
	user, err := s.users.GetUser(ctx, r.ID)
	if err != nil {
		return nil, storeError(err, "User not found", "Failed to load user")
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, r Requester, in UpdateProfileInput) (*Session, error) {
	user, err := s.users.GetUser(ctx, r.ID)
	if err != nil {
		return nil, storeError(err, "User not found", "Failed to load user")
	}

	if v := trimmed(in.Name); v != "" {
		if len(v) > 100 {
			return nil, ValidationError("name must be at most 100 characters")
		}
		user.Name = v
	}
	if v := trimmed(in.Email); v != "" {
		email, err := utils.NormalizeEmail(v)
		if err != nil {
			return nil, ValidationError("email must be a valid email")
		}
		if email != user.Email {
			if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
				return nil, Conflict("Email already in use")
			} else if !errors.Is(err, store.ErrNotFound) {
				return nil, Internal("Failed to check existing user", err)
			}
			user.Email = email
		}
	}
	if v := trimmed(in.ProfileImageURL); v != "" {
		user.ProfileImageURL = v
	}
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) < 8 {
			return nil, ValidationError("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, Internal("Failed to hash password", err)
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("Email already in use")
		}
		return nil, storeError(err, "User not found", "Failed to update user")
	}
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, _, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, Internal("Failed to generate token", err)
	}
	return &Session{User: user, Token: token}, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
