package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DetailsMap is the free-form event payload, stored as JSON. Marshalling
// is best-effort: values that cannot be serialized are dropped rather
// than failing the append.
type DetailsMap map[string]interface{}

func (m DetailsMap) Value() (driver.Value, error) {
	if m == nil {
		m = DetailsMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		// drop unserializable entries one by one
		clean := DetailsMap{}
		for k, v := range m {
			if _, err := json.Marshal(v); err == nil {
				clean[k] = v
			}
		}
		b, _ = json.Marshal(clean)
	}
	return string(b), nil
}

func (m *DetailsMap) Scan(value interface{}) error {
	if value == nil {
		*m = DetailsMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for DetailsMap: %T", value)
	}
}

// SecurityEvent is the persistence shape of one audit-trail entry.
// Rows are append-only; there is no update path.
type SecurityEvent struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    *int64     `gorm:"column:user_id;index"`
	EventType string     `gorm:"column:event_type;not null;index"`
	IPAddress string     `gorm:"column:ip_address"`
	UserAgent string     `gorm:"column:user_agent"`
	Details   DetailsMap `gorm:"column:details;type:text"`
	Timestamp time.Time  `gorm:"column:timestamp"`
}

func (SecurityEvent) TableName() string {
	return "security_events"
}
