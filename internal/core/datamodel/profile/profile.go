package profile

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ApprovalMap stores the per-area approval flags as a single JSON column,
// keyed by area name. Adding a protected area needs a new key, not a new
// column.
type ApprovalMap map[string]bool

func (m ApprovalMap) Value() (driver.Value, error) {
	if m == nil {
		m = ApprovalMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *ApprovalMap) Scan(value interface{}) error {
	if value == nil {
		*m = ApprovalMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for ApprovalMap: %T", value)
	}
}

// Profile is the persistence shape of a user profile.
type Profile struct {
	ID               int64       `gorm:"primaryKey"`
	UserID           int64       `gorm:"column:user_id;uniqueIndex;not null"`
	UserType         string      `gorm:"column:user_type;default:customer"`
	Phone            string      `gorm:"column:phone"`
	Address          string      `gorm:"column:address"`
	BillingAddress   string      `gorm:"column:billing_address"`
	ProfileCompleted bool        `gorm:"column:profile_completed;default:false"`
	CompletionDate   *time.Time  `gorm:"column:completion_date"`
	Approvals        ApprovalMap `gorm:"column:approvals;type:text"`
	ApprovedBy       *int64      `gorm:"column:approved_by"`
	ApprovalDate     *time.Time  `gorm:"column:approval_date"`
	ApprovalNotes    string      `gorm:"column:approval_notes"`
	MarketingEmails  bool        `gorm:"column:marketing_emails;default:false"`
	SocialProvider   string      `gorm:"column:social_provider;default:manual"`
	CreatedAt        time.Time   `gorm:"column:created_at"`
	UpdatedAt        time.Time   `gorm:"column:updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
