package profile

import (
	"time"

	errors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/core/common/validation"
)

type RegisterRequestDTO struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	UserType        string `json:"user_type"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
	MarketingEmails bool   `json:"marketing_emails"`
}

func (r *RegisterRequestDTO) Validate() error {
	if r.UserType == "" {
		r.UserType = UserTypeCustomer
	}
	validator := validation.NewValidator()

	validator.Field("username", r.Username).Required().MinLength(3).MaxLength(150)
	validator.Field("email", r.Email).Required().MaxLength(254)
	validator.Field("password", r.Password).Required()
	validator.Field("first_name", r.FirstName).MaxLength(150)
	validator.Field("last_name", r.LastName).MaxLength(150)
	validator.Field("user_type", r.UserType).OneOf(UserTypeCustomer, UserTypeBlogger, UserTypeEmployee)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateProfileRequestDTO struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Address         *string `json:"address,omitempty"`
	BillingAddress  *string `json:"billing_address,omitempty"`
	MarketingEmails *bool   `json:"marketing_emails,omitempty"`
}

func (r *UpdateProfileRequestDTO) Validate() error {
	validator := validation.NewValidator()

	if r.FirstName != nil {
		validator.Field("first_name", *r.FirstName).MaxLength(150)
	}
	if r.LastName != nil {
		validator.Field("last_name", *r.LastName).MaxLength(150)
	}
	if r.Address != nil {
		validator.Field("address", *r.Address).MaxLength(500)
	}
	if r.BillingAddress != nil {
		validator.Field("billing_address", *r.BillingAddress).MaxLength(500)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (r *UpdateProfileRequestDTO) HasChanges() bool {
	return r.FirstName != nil || r.LastName != nil || r.Phone != nil ||
		r.Address != nil || r.BillingAddress != nil || r.MarketingEmails != nil
}

type GrantAccessRequestDTO struct {
	Area  string `json:"area"`
	Notes string `json:"notes,omitempty"`
}

func (r *GrantAccessRequestDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("area", r.Area).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if !IsKnownArea(Area(r.Area)) {
		return errors.NewUnknownAreaError(r.Area)
	}
	return nil
}

type ProfileResponseDTO struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	UserType         string          `json:"user_type"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	BillingAddress   string          `json:"billing_address"`
	ProfileCompleted bool            `json:"profile_completed"`
	CompletionDate   *time.Time      `json:"completion_date,omitempty"`
	Approvals        map[string]bool `json:"approvals"`
	ApprovalDate     *time.Time      `json:"approval_date,omitempty"`
	MarketingEmails  bool            `json:"marketing_emails"`
	CanAccessShop    bool            `json:"can_access_shop"`
	CanAccessCRM     bool            `json:"can_access_crm"`
	CanAccessBlog    bool            `json:"can_access_blog"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func ToProfileResponse(p *Profile, username, email, firstName, lastName string) *ProfileResponseDTO {
	approvals := make(map[string]bool, len(p.Approvals))
	for area, approved := range p.Approvals {
		approvals[string(area)] = approved
	}
	return &ProfileResponseDTO{
		ID:               p.ID,
		UserID:           p.UserID,
		Username:         username,
		Email:            email,
		FirstName:        firstName,
		LastName:         lastName,
		UserType:         p.UserType,
		Phone:            p.Phone,
		Address:          p.Address,
		BillingAddress:   p.BillingAddress,
		ProfileCompleted: p.ProfileCompleted,
		CompletionDate:   p.CompletionDate,
		Approvals:        approvals,
		ApprovalDate:     p.ApprovalDate,
		MarketingEmails:  p.MarketingEmails,
		CanAccessShop:    p.CanAccessShop(),
		CanAccessCRM:     p.CanAccessCRM(),
		CanAccessBlog:    p.CanAccessBlog(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
