package auth

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/audit"
	"github.com/blitztech/access-management/internal/core/common/validation"
	coreuser "github.com/blitztech/access-management/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	GetAccountByUsername(username string) (*Account, error)
	GetAccountByID(userID int64) (*Account, error)
	UpdateLoginState(userID int64, failedCount int, lockedUntil *time.Time) error
	UpdatePasswordHash(userID int64, passwordHash string) error
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO, ipAddress, userAgent string) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetIdentity(userID int64) (*coreuser.User, error)
	ChangePassword(userID int64, dto ChangePasswordDTO, ipAddress, userAgent string) error
}

// Service authenticates credentials under a failed-attempt rate limit
// and an account lockout threshold, and records every outcome on the
// audit trail.
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	limiter        CounterStore
	auditor        audit.Recorder
	passwords      *validation.PasswordPolicy
	maxAttempts    int
	blockWindow    time.Duration
	lockDuration   time.Duration
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(
	userRepo UserRepository,
	tokenGen TokenGenerator,
	limiter CounterStore,
	auditor audit.Recorder,
	passwords *validation.PasswordPolicy,
	cfg apperrors.SecurityConfig,
	logger *slog.Logger,
) *Service {
	maxAttempts := cfg.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	blockWindow := cfg.LoginBlockWindow
	if blockWindow <= 0 {
		blockWindow = 15 * time.Minute
	}
	lockDuration := cfg.AccountLockDuration
	if lockDuration <= 0 {
		lockDuration = 30 * time.Minute
	}
	bcryptCost := cfg.BCryptCost
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		limiter:        limiter,
		auditor:        auditor,
		passwords:      passwords,
		maxAttempts:    maxAttempts,
		blockWindow:    blockWindow,
		lockDuration:   lockDuration,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens. Attempts beyond
// the per-identifier limit are refused before the password is even
// checked; repeated failures lock the account itself.
func (s *Service) Authenticate(dto LoginDTO, ipAddress, userAgent string) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	// Consume the attempt before touching the password so concurrent
	// requests cannot all squeeze under the ceiling. Success refunds it
	// by resetting the counter.
	limiterKey := rateLimitKey(dto.Username, ipAddress)
	attempts, err := s.limiter.Incr(limiterKey, s.blockWindow)
	if err != nil {
		s.logger.Error("rate limit increment failed", "error", err)
	} else if attempts > s.maxAttempts {
		s.auditor.Record(nil, audit.EventSuspiciousActivity, ipAddress, userAgent, map[string]interface{}{
			"reason":   "login_rate_limited",
			"username": dto.Username,
		})
		return AuthTokens{}, apperrors.ErrRateLimitExceeded
	}

	account, err := s.userRepo.GetAccountByUsername(dto.Username)
	if err != nil {
		s.recordFailure(nil, dto.Username, ipAddress, userAgent, "unknown_user")
		return AuthTokens{}, apperrors.ErrInvalidCredentials
	}

	if account.LockedUntil != nil && time.Now().Before(*account.LockedUntil) {
		s.auditor.Record(&account.ID, audit.EventLoginFailure, ipAddress, userAgent, map[string]interface{}{
			"reason": "account_locked",
		})
		return AuthTokens{}, apperrors.ErrAccountLocked
	}

	if !account.IsActive {
		s.auditor.Record(&account.ID, audit.EventLoginFailure, ipAddress, userAgent, map[string]interface{}{
			"reason": "inactive",
		})
		return AuthTokens{}, apperrors.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(dto.Password)); err != nil {
		s.handleBadPassword(account, ipAddress, userAgent)
		return AuthTokens{}, apperrors.ErrInvalidCredentials
	}

	// Success clears both the window counter and the stored failure state.
	if err := s.limiter.Reset(limiterKey); err != nil {
		s.logger.Warn("failed to reset rate limit counter", "error", err)
	}
	if account.FailedLoginCount > 0 || account.LockedUntil != nil {
		if err := s.userRepo.UpdateLoginState(account.ID, 0, nil); err != nil {
			s.logger.Warn("failed to clear login failure state", "error", err, "user_id", account.ID)
		}
	}

	s.auditor.Record(&account.ID, audit.EventLoginSuccess, ipAddress, userAgent, nil)

	return s.issueTokens(account)
}

func (s *Service) handleBadPassword(account *Account, ipAddress, userAgent string) {
	failedCount := account.FailedLoginCount + 1
	var lockedUntil *time.Time
	if failedCount >= s.maxAttempts {
		until := time.Now().Add(s.lockDuration)
		lockedUntil = &until
	}
	if err := s.userRepo.UpdateLoginState(account.ID, failedCount, lockedUntil); err != nil {
		s.logger.Error("failed to persist login failure state", "error", err, "user_id", account.ID)
	}

	if lockedUntil != nil {
		s.auditor.Record(&account.ID, audit.EventAccountLockout, ipAddress, userAgent, map[string]interface{}{
			"failed_attempts": failedCount,
			"locked_until":    lockedUntil.Format(time.RFC3339),
		})
		s.logger.Warn("account locked after repeated failures", "user_id", account.ID, "failed_attempts", failedCount)
		return
	}

	s.auditor.Record(&account.ID, audit.EventLoginFailure, ipAddress, userAgent, map[string]interface{}{
		"reason":          "bad_password",
		"failed_attempts": failedCount,
	})
}

func (s *Service) recordFailure(userID *int64, username, ipAddress, userAgent, reason string) {
	s.auditor.Record(userID, audit.EventLoginFailure, ipAddress, userAgent, map[string]interface{}{
		"reason":   reason,
		"username": username,
	})
}

// RefreshTokens validates a refresh token and issues a new pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return AuthTokens{}, apperrors.ErrInvalidToken
	}

	account, err := s.userRepo.GetAccountByID(userID)
	if err != nil {
		return AuthTokens{}, apperrors.ErrInvalidToken
	}
	if !account.IsActive {
		return AuthTokens{}, apperrors.ErrUserInactive
	}

	return s.issueTokens(account)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// GetIdentity loads the context identity for a validated token subject.
func (s *Service) GetIdentity(userID int64) (*coreuser.User, error) {
	account, err := s.userRepo.GetAccountByID(userID)
	if err != nil {
		return nil, err
	}
	return account.ToIdentity(), nil
}

// ChangePassword verifies the current password and applies the password
// policy to the new one before rehashing.
func (s *Service) ChangePassword(userID int64, dto ChangePasswordDTO, ipAddress, userAgent string) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	account, err := s.userRepo.GetAccountByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(dto.CurrentPassword)); err != nil {
		s.auditor.Record(&userID, audit.EventSuspiciousActivity, ipAddress, userAgent, map[string]interface{}{
			"reason": "password_change_bad_current",
		})
		return apperrors.ErrInvalidCredentials
	}

	identity := validation.Identity{
		Username:  account.Username,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
	}
	if err := s.passwords.Validate(dto.NewPassword, identity); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(userID, string(hash)); err != nil {
		s.logger.Error("failed to persist new password", "error", err, "user_id", userID)
		return err
	}

	s.auditor.Record(&userID, audit.EventPasswordChange, ipAddress, userAgent, nil)
	s.logger.Info("password changed", "user_id", userID)
	return nil
}

func (s *Service) issueTokens(account *Account) (AuthTokens, error) {
	subject := strconv.FormatInt(account.ID, 10)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(subject, account.Email)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(subject, account.Email)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func rateLimitKey(username, ipAddress string) string {
	return "login:" + username + ":" + ipAddress
}
