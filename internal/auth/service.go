package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth/jwt"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotGuest           = errors.New("account is not a guest")
)

// userStore is the slice of the user repository the auth service needs.
type userStore interface {
	Create(ctx context.Context, u *repository.User) error
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.User, error)
	PromoteGuest(ctx context.Context, id uuid.UUID, email, passwordHash string) (*repository.User, error)
	UpdateLogin(ctx context.Context, id uuid.UUID) error
}

// Service handles authentication and account management.
type Service struct {
	users    userStore
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// NewService creates an authentication service.
func NewService(users userStore, tokenCfg jwt.Config, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(tokenCfg),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new registered account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	row := &repository.User{
		Email:        &email,
		PasswordHash: &passwordHash,
		DisplayName:  req.DisplayName,
		UserType:     UserTypeRegistered,
	}
	if err := s.users.Create(ctx, row); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	user := toUser(row)
	tokens, err := s.tokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, tokens, nil
}

// Login authenticates with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	row, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if row.PasswordHash == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(*row.PasswordHash, req.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLogin(ctx, row.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", row.ID.String()).Msg("update last login failed")
	}

	user := toUser(row)
	tokens, err := s.tokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return user, tokens, nil
}

// CreateGuest creates an ephemeral guest account. A display name is generated
// when the request omits one.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*User, *TokenPair, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = guestName()
	}

	row := &repository.User{
		DisplayName: name,
		UserType:    UserTypeGuest,
	}
	if err := s.users.Create(ctx, row); err != nil {
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}

	user := toUser(row)
	tokens, err := s.tokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest created")
	return user, tokens, nil
}

// ConvertGuest upgrades the calling guest to a registered account.
func (s *Service) ConvertGuest(ctx context.Context, guestID uuid.UUID, req ConvertGuestRequest) (*User, *TokenPair, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	row, err := s.users.PromoteGuest(ctx, guestID, email, passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotGuest
		}
		if repository.IsUniqueViolation(err) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("convert guest: %w", err)
	}

	user := toUser(row)
	tokens, err := s.tokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest converted to registered")
	return user, tokens, nil
}

// LoginWithOAuth creates or fetches the account behind a verified OAuth
// profile and issues tokens.
func (s *Service) LoginWithOAuth(ctx context.Context, provider string, info *OAuthUserInfo) (*User, *TokenPair, error) {
	if info.Email == "" {
		return nil, nil, fmt.Errorf("oauth provider returned no email")
	}
	email := normalizeEmail(info.Email)

	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("check email: %w", err)
		}
		name := info.Name
		if name == "" {
			name = email
		}
		row = &repository.User{
			Email:       &email,
			DisplayName: name,
			UserType:    UserTypeRegistered,
		}
		if err := s.users.Create(ctx, row); err != nil {
			return nil, nil, fmt.Errorf("create oauth user: %w", err)
		}
		s.logger.Info().Str("user_id", row.ID.String()).Str("provider", provider).Msg("oauth user created")
	}

	if err := s.users.UpdateLogin(ctx, row.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", row.ID.String()).Msg("update last login failed")
	}

	user := toUser(row)
	tokens, err := s.tokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshToken trades a valid refresh token for a fresh pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	row, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.tokenPair(toUser(row))
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

// GetUser fetches an account by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	row, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUser(row), nil
}

func (s *Service) tokenPair(user *User) (*TokenPair, error) {
	sub := jwt.Subject{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		IsGuest:     user.IsGuest,
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(sub)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokenMgr.GenerateRefreshToken(sub)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

func toUser(row *repository.User) *User {
	return &User{
		ID:          row.ID,
		Email:       row.Email,
		DisplayName: row.DisplayName,
		UserType:    row.UserType,
		IsGuest:     row.UserType == UserTypeGuest,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func guestName() string {
	return "Guest-" + strings.ToUpper(uuid.NewString()[:4])
}
