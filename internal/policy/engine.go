package policy

import (
	errors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/profile"
)

// Decision is the outcome of an access check, with the reason a denial
// can be explained to the caller.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Area    string `json:"area"`
	Reason  string `json:"reason,omitempty"`
}

const (
	ReasonNotApproved       = "area_not_approved"
	ReasonProfileIncomplete = "profile_incomplete"
	ReasonWrongUserType     = "wrong_user_type"
	ReasonUnknownArea       = "unknown_area"
)

// Engine answers "may this profile enter this area". Checks are pure
// reads: evaluating a decision never mutates the profile and never
// writes to the audit trail, callers decide what to record.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// CheckAccess evaluates the area's access rule against the profile. The
// shop is open to every account type with no approval or completeness
// requirement. CRM needs an approval and a complete profile. Blog needs
// the blogger type on top of both.
func (e *Engine) CheckAccess(p *profile.Profile, area profile.Area) Decision {
	switch area {
	case profile.AreaShop:
		return Decision{Allowed: true, Area: string(area)}

	case profile.AreaCRM:
		if !p.IsApprovedFor(profile.AreaCRM) {
			return Decision{Area: string(area), Reason: ReasonNotApproved}
		}
		if !p.ProfileCompleted {
			return Decision{Area: string(area), Reason: ReasonProfileIncomplete}
		}
		return Decision{Allowed: true, Area: string(area)}

	case profile.AreaBlog:
		if !p.IsBlogger() {
			return Decision{Area: string(area), Reason: ReasonWrongUserType}
		}
		if !p.IsApprovedFor(profile.AreaBlog) {
			return Decision{Area: string(area), Reason: ReasonNotApproved}
		}
		if !p.ProfileCompleted {
			return Decision{Area: string(area), Reason: ReasonProfileIncomplete}
		}
		return Decision{Allowed: true, Area: string(area)}

	default:
		return Decision{Area: string(area), Reason: ReasonUnknownArea}
	}
}

// Authorize is CheckAccess as an error: nil when allowed, an access
// denied error carrying the reason otherwise.
func (e *Engine) Authorize(p *profile.Profile, area profile.Area) error {
	decision := e.CheckAccess(p, area)
	if decision.Allowed {
		return nil
	}
	if decision.Reason == ReasonUnknownArea {
		return errors.NewUnknownAreaError(string(area))
	}
	return errors.NewForbiddenError("Access to this area is not granted", errors.ErrCodeAccessDenied).
		WithDetails(decision)
}
