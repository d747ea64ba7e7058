package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskrooms/internal/logging"
	"github.com/redmonkez12/taskrooms/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// UserRepository is the narrow persistence contract the auth service
// needs. The bun implementation lives in internal/user.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationCode(ctx context.Context, toEmail, code string) error
	SendPasswordResetCode(ctx context.Context, toEmail, code string) error
}

// AuthTokens is the login/refresh response payload
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service handles authentication business logic
type Service struct {
	userRepo            UserRepository
	verificationCodes   *VerificationCodes
	resetCodes          *ResetCodes
	tokens              *JWTService
	emailService        EmailService
	logger              *logging.Logger
	accessTokenDuration time.Duration
}

func NewService(
	userRepo UserRepository,
	verificationCodes *VerificationCodes,
	resetCodes *ResetCodes,
	tokens *JWTService,
	emailService EmailService,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
) *Service {
	return &Service{
		userRepo:            userRepo,
		verificationCodes:   verificationCodes,
		resetCodes:          resetCodes,
		tokens:              tokens,
		emailService:        emailService,
		logger:              logger,
		accessTokenDuration: accessTokenDuration,
	}
}

// Register creates a new user account and sends a verification code
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	// Validate input
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.verificationCodes.Set(ctx, email, code); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	// Send verification email in a goroutine (non-blocking)
	go func() {
		// Create a new context for the goroutine to avoid cancellation issues
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationCode(emailCtx, email, code); err != nil {
			// Log error but don't fail registration
			// User can request a new verification code later
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login authenticates a user and returns access and refresh tokens
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// Deactivated accounts are indistinguishable from bad credentials
	if !existingUser.IsActive {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Issue(existingUser.ID, TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := s.tokens.Issue(existingUser.ID, TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// RefreshAccessToken mints a new access token from a valid refresh token.
// The refresh token itself is not rotated or revoked.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	userID, err := s.tokens.VerifySubject(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !existingUser.IsActive {
		return nil, ErrInvalidToken
	}

	accessToken, err := s.tokens.Issue(existingUser.ID, TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &AuthTokens{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// VerifyEmail checks the submitted code and marks the user verified.
// The cache entry is deleted only after the user update commits; a crash
// in between leaves a stale entry, which a repeat verify tolerates.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Don't reveal whether the email exists
			return ErrInvalidVerificationCode
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if existingUser.IsVerified {
		return ErrAlreadyVerified
	}

	if err := s.verificationCodes.Check(ctx, email, code); err != nil {
		return err
	}

	if err := s.userRepo.MarkVerified(ctx, existingUser.ID); err != nil {
		return fmt.Errorf("failed to mark user as verified: %w", err)
	}

	if err := s.verificationCodes.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to delete verification code", "email", email, "error", err)
	}

	return nil
}

// ResendVerificationCode sends a fresh verification code.
// Always returns nil to prevent email enumeration attacks
func (s *Service) ResendVerificationCode(ctx context.Context, email string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for resend verification", "error", err)
		return nil
	}
	if existingUser.IsVerified {
		return nil
	}

	code, err := GenerateCode()
	if err != nil {
		s.logger.Warn("failed to generate verification code", "error", err)
		return nil
	}
	if err := s.verificationCodes.Set(ctx, email, code); err != nil {
		s.logger.Warn("failed to store verification code", "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationCode(emailCtx, email, code); err != nil {
			s.logger.Warn("failed to resend verification email", "email", email, "error", err)
		}
	}()

	return nil
}

// RequestPasswordReset stores a hashed reset code and emails the plaintext.
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err)
		return nil
	}

	code, err := GenerateCode()
	if err != nil {
		s.logger.Warn("failed to generate reset code", "error", err)
		return nil
	}
	if err := s.resetCodes.Set(ctx, email, code); err != nil {
		s.logger.Warn("failed to store reset code", "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendPasswordResetCode(emailCtx, email, code); err != nil {
			s.logger.Warn("failed to send password reset email", "email", email, "error", err)
		}
	}()

	return nil
}

// ConfirmPasswordReset validates the reset code and updates the password
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	if err := s.resetCodes.Check(ctx, email, code); err != nil {
		return err
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, existingUser.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Consume the code once the password update has committed
	if err := s.resetCodes.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to delete reset code", "email", email, "error", err)
	}

	return nil
}
