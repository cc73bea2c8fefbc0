package profile

import (
	"errors"
	"time"

	profileDatamodel "github.com/blitztech/access-management/internal/core/datamodel/profile"
)

// Area is a named protected capability domain.
type Area string

const (
	AreaShop Area = "shop"
	AreaCRM  Area = "crm"
	AreaBlog Area = "blog"
)

// KnownAreas lists every protected area. Adding an area means adding a
// value here; profiles store approvals as a map keyed by area, so no
// schema change is needed.
func KnownAreas() []Area {
	return []Area{AreaShop, AreaCRM, AreaBlog}
}

func IsKnownArea(a Area) bool {
	for _, known := range KnownAreas() {
		if a == known {
			return true
		}
	}
	return false
}

const (
	UserTypeCustomer = "customer"
	UserTypeBlogger  = "blogger"
	UserTypeEmployee = "employee"
)

const (
	SocialProviderManual   = "manual"
	SocialProviderGoogle   = "google"
	SocialProviderFacebook = "facebook"
)

// Profile holds per-account access state: the user type, contact
// attributes, the derived completeness flag and the per-area approval
// flags.
type Profile struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"user_id"`
	UserType         string        `json:"user_type"`
	Phone            string        `json:"phone"`
	Address          string        `json:"address"`
	BillingAddress   string        `json:"billing_address"`
	ProfileCompleted bool          `json:"profile_completed"`
	CompletionDate   *time.Time    `json:"completion_date,omitempty"`
	Approvals        map[Area]bool `json:"approvals"`
	ApprovedBy       *int64        `json:"approved_by,omitempty"`
	ApprovalDate     *time.Time    `json:"approval_date,omitempty"`
	ApprovalNotes    string        `json:"approval_notes,omitempty"`
	MarketingEmails  bool          `json:"marketing_emails"`
	SocialProvider   string        `json:"social_provider"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnknownArea     = errors.New("unknown access area")
)

// NewProfile builds a profile with the registration defaults for the
// given user type. Shop access is self-service and granted immediately;
// crm and blog always start unapproved.
func NewProfile(userID int64, userType string) *Profile {
	now := time.Now()
	return &Profile{
		UserID:   userID,
		UserType: userType,
		Approvals: map[Area]bool{
			AreaShop: true,
			AreaCRM:  false,
			AreaBlog: false,
		},
		SocialProvider: SocialProviderManual,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (p *Profile) IsCustomer() bool { return p.UserType == UserTypeCustomer }
func (p *Profile) IsBlogger() bool  { return p.UserType == UserTypeBlogger }
func (p *Profile) IsEmployee() bool { return p.UserType == UserTypeEmployee }

func (p *Profile) IsApprovedFor(area Area) bool {
	if p.Approvals == nil {
		return false
	}
	return p.Approvals[area]
}

// NeedsApprovalFor reports whether the area's approval flag is still
// unset.
func (p *Profile) NeedsApprovalFor(area Area) bool {
	return !p.IsApprovedFor(area)
}

// CanAccessShop is unconditionally true: shop access is self-service for
// every account type.
func (p *Profile) CanAccessShop() bool {
	return true
}

// CanAccessCRM requires an explicit approval and a complete profile. An
// approved-but-incomplete profile is still denied.
func (p *Profile) CanAccessCRM() bool {
	return p.IsApprovedFor(AreaCRM) && p.ProfileCompleted
}

// CanAccessBlog requires the blogger type on top of approval and
// completeness.
func (p *Profile) CanAccessBlog() bool {
	return p.UserType == UserTypeBlogger && p.IsApprovedFor(AreaBlog) && p.ProfileCompleted
}

// ComputeCompleteness is the pure completeness predicate: first and last
// name non-empty, a valid phone, and an address for non-employee
// accounts. The caller persists the result onto ProfileCompleted.
func (p *Profile) ComputeCompleteness(firstName, lastName string, phoneValid bool) bool {
	if firstName == "" || lastName == "" {
		return false
	}
	if p.Phone == "" || !phoneValid {
		return false
	}
	if !p.IsEmployee() && p.Address == "" {
		return false
	}
	return true
}

// GrantAccess flips the area's approval flag and refreshes the approval
// metadata. Re-granting an already-approved area is allowed; the flag is
// unchanged but metadata and the audit trail record the repeat action.
func (p *Profile) GrantAccess(area Area, reviewerID int64, notes string) {
	if p.Approvals == nil {
		p.Approvals = make(map[Area]bool)
	}
	now := time.Now()
	p.Approvals[area] = true
	p.ApprovedBy = &reviewerID
	p.ApprovalDate = &now
	p.ApprovalNotes = notes
	p.UpdatedAt = now
}

func ToDataModel(p *Profile) *profileDatamodel.Profile {
	approvals := make(profileDatamodel.ApprovalMap, len(p.Approvals))
	for area, approved := range p.Approvals {
		approvals[string(area)] = approved
	}
	return &profileDatamodel.Profile{
		ID:               p.ID,
		UserID:           p.UserID,
		UserType:         p.UserType,
		Phone:            p.Phone,
		Address:          p.Address,
		BillingAddress:   p.BillingAddress,
		ProfileCompleted: p.ProfileCompleted,
		CompletionDate:   p.CompletionDate,
		Approvals:        approvals,
		ApprovedBy:       p.ApprovedBy,
		ApprovalDate:     p.ApprovalDate,
		ApprovalNotes:    p.ApprovalNotes,
		MarketingEmails:  p.MarketingEmails,
		SocialProvider:   p.SocialProvider,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func FromDataModel(p *profileDatamodel.Profile) *Profile {
	approvals := make(map[Area]bool, len(p.Approvals))
	for area, approved := range p.Approvals {
		approvals[Area(area)] = approved
	}
	return &Profile{
		ID:               p.ID,
		UserID:           p.UserID,
		UserType:         p.UserType,
		Phone:            p.Phone,
		Address:          p.Address,
		BillingAddress:   p.BillingAddress,
		ProfileCompleted: p.ProfileCompleted,
		CompletionDate:   p.CompletionDate,
		Approvals:        approvals,
		ApprovedBy:       p.ApprovedBy,
		ApprovalDate:     p.ApprovalDate,
		ApprovalNotes:    p.ApprovalNotes,
		MarketingEmails:  p.MarketingEmails,
		SocialProvider:   p.SocialProvider,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
