package postgres

import (
	"github.com/blitztech/access-management/internal/audit"
	auditDatamodel "github.com/blitztech/access-management/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

// AuditRepository implements the audit.Repository interface using GORM
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(event *audit.SecurityEvent) error {
	record := audit.ToDataModel(event)
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	event.ID = record.ID
	return nil
}

func (r *AuditRepository) ListByUser(userID int64, limit, offset int) ([]*audit.SecurityEvent, error) {
	var records []*auditDatamodel.SecurityEvent
	err := r.db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return audit.FromDataModelSlice(records), nil
}

func (r *AuditRepository) ListByEventType(eventType string, limit, offset int) ([]*audit.SecurityEvent, error) {
	var records []*auditDatamodel.SecurityEvent
	err := r.db.Where("event_type = ?", eventType).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return audit.FromDataModelSlice(records), nil
}
