package profile

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blitztech/access-management/internal/audit"
	"github.com/blitztech/access-management/internal/core/common/validation"
	"github.com/blitztech/access-management/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// Repository defines the data access methods for profiles
type Repository interface {
	Create(p *Profile) error
	GetByUserID(userID int64) (*Profile, error)
	Update(p *Profile) error
}

// UserStore is the slice of account storage the profile service needs
// for registration and identity lookups.
type UserStore interface {
	Create(u *user.User) error
	GetByID(userID int64) (*user.User, error)
	GetByUsername(username string) (*user.User, error)
	GetByEmail(email string) (*user.User, error)
	Update(u *user.User) error
}

// Service handles registration, profile maintenance and per-area access
// grants.
type Service struct {
	repo       Repository
	users      UserStore
	auditor    audit.Recorder
	passwords  *validation.PasswordPolicy
	phones     *validation.PhonePolicy
	emails     *validation.EmailPolicy
	bcryptCost int
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	users UserStore,
	auditor audit.Recorder,
	passwords *validation.PasswordPolicy,
	phones *validation.PhonePolicy,
	emails *validation.EmailPolicy,
	bcryptCost int,
	logger *slog.Logger,
) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		users:      users,
		auditor:    auditor,
		passwords:  passwords,
		phones:     phones,
		emails:     emails,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an account plus its profile. Validation runs before
// anything is persisted: email policy first, then the password policy
// against the account identity, then the phone shape when one is given.
func (s *Service) Register(dto RegisterRequestDTO, ipAddress, userAgent string) (*user.User, *Profile, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("registration validation failed", "error", err, "username", dto.Username)
		return nil, nil, err
	}

	if err := s.emails.Validate(dto.Email, dto.UserType); err != nil {
		return nil, nil, err
	}

	identity := validation.Identity{
		Username:  dto.Username,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
	}
	if err := s.passwords.Validate(dto.Password, identity); err != nil {
		return nil, nil, err
	}

	if dto.Phone != "" {
		if err := s.phones.Validate(dto.Phone); err != nil {
			return nil, nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &user.User{
		Username:     dto.Username,
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(account); err != nil {
		s.logger.Error("failed to create account", "error", err, "username", dto.Username)
		return nil, nil, err
	}

	p := NewProfile(account.ID, dto.UserType)
	p.Phone = dto.Phone
	p.Address = dto.Address
	p.MarketingEmails = dto.MarketingEmails
	s.refreshCompleteness(p, account)

	if err := s.repo.Create(p); err != nil {
		s.logger.Error("failed to create profile", "error", err, "user_id", account.ID)
		return nil, nil, err
	}

	s.auditor.Record(&account.ID, audit.EventProfileUpdate, ipAddress, userAgent, map[string]interface{}{
		"action":    "registered",
		"user_type": p.UserType,
	})

	s.logger.Info("account registered",
		"user_id", account.ID,
		"user_type", p.UserType,
		"profile_completed", p.ProfileCompleted)

	return account, p, nil
}

// GetByUserID returns the profile for an account.
func (s *Service) GetByUserID(userID int64) (*Profile, error) {
	p, err := s.repo.GetByUserID(userID)
	if err != nil {
		s.logger.Error("failed to get profile", "error", err, "user_id", userID)
		return nil, err
	}
	return p, nil
}

// GetProfileResponse joins the profile with the account identity for the
// API shape.
func (s *Service) GetProfileResponse(userID int64) (*ProfileResponseDTO, error) {
	p, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return ToProfileResponse(p, account.Username, account.Email, account.FirstName, account.LastName), nil
}

// UpdateProfile applies the changed fields, revalidates the phone when it
// changed and recomputes completeness. The completion date is stamped the
// first time the profile becomes complete.
func (s *Service) UpdateProfile(userID int64, dto UpdateProfileRequestDTO, ipAddress, userAgent string) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	var changed []string
	if dto.FirstName != nil && *dto.FirstName != account.FirstName {
		account.FirstName = *dto.FirstName
		changed = append(changed, "first_name")
	}
	if dto.LastName != nil && *dto.LastName != account.LastName {
		account.LastName = *dto.LastName
		changed = append(changed, "last_name")
	}
	if dto.Phone != nil && *dto.Phone != p.Phone {
		if *dto.Phone != "" {
			if err := s.phones.Validate(*dto.Phone); err != nil {
				return nil, err
			}
		}
		p.Phone = *dto.Phone
		changed = append(changed, "phone")
	}
	if dto.Address != nil && *dto.Address != p.Address {
		p.Address = *dto.Address
		changed = append(changed, "address")
	}
	if dto.BillingAddress != nil && *dto.BillingAddress != p.BillingAddress {
		p.BillingAddress = *dto.BillingAddress
		changed = append(changed, "billing_address")
	}
	if dto.MarketingEmails != nil && *dto.MarketingEmails != p.MarketingEmails {
		p.MarketingEmails = *dto.MarketingEmails
		changed = append(changed, "marketing_emails")
	}

	if len(changed) == 0 {
		return p, nil
	}

	s.refreshCompleteness(p, account)

	if err := s.users.Update(account); err != nil {
		s.logger.Error("failed to update account", "error", err, "user_id", userID)
		return nil, err
	}
	if err := s.repo.Update(p); err != nil {
		s.logger.Error("failed to update profile", "error", err, "user_id", userID)
		return nil, err
	}

	s.auditor.Record(&userID, audit.EventProfileUpdate, ipAddress, userAgent, map[string]interface{}{
		"changed_fields":    changed,
		"profile_completed": p.ProfileCompleted,
	})

	return p, nil
}

// CheckProfileCompletion recomputes the completeness flag from current
// data, persists it when it changed and returns the result.
func (s *Service) CheckProfileCompletion(userID int64) (bool, error) {
	p, err := s.repo.GetByUserID(userID)
	if err != nil {
		return false, err
	}
	account, err := s.users.GetByID(userID)
	if err != nil {
		return false, err
	}

	before := p.ProfileCompleted
	s.refreshCompleteness(p, account)
	if p.ProfileCompleted != before {
		if err := s.repo.Update(p); err != nil {
			return false, err
		}
	}
	return p.ProfileCompleted, nil
}

// ApproveForAccess grants the area on the profile and records the grant
// on the audit trail. Granting an already-approved area refreshes the
// approval metadata and still produces an audit event.
func (s *Service) ApproveForAccess(userID int64, area Area, reviewerID int64, notes, ipAddress, userAgent string) (*Profile, error) {
	if !IsKnownArea(area) {
		return nil, ErrUnknownArea
	}

	p, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	p.GrantAccess(area, reviewerID, notes)
	if err := s.repo.Update(p); err != nil {
		s.logger.Error("failed to persist access grant", "error", err, "user_id", userID, "area", area)
		return nil, err
	}

	s.auditor.Record(&userID, audit.EventApprovalGranted, ipAddress, userAgent, map[string]interface{}{
		"area":        string(area),
		"reviewer_id": reviewerID,
	})

	s.logger.Info("access granted",
		"user_id", userID,
		"area", area,
		"reviewer_id", reviewerID)

	return p, nil
}

func (s *Service) refreshCompleteness(p *Profile, account *user.User) {
	phoneValid := p.Phone != "" && s.phones.IsValid(p.Phone)
	complete := p.ComputeCompleteness(account.FirstName, account.LastName, phoneValid)
	if complete && !p.ProfileCompleted {
		now := time.Now()
		p.CompletionDate = &now
	}
	if !complete {
		p.CompletionDate = nil
	}
	p.ProfileCompleted = complete
	p.UpdatedAt = time.Now()
}
