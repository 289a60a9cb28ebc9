package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"sitex/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx}
}

// Record stores an audit entry with data encoded as JSON.
func (r *AuditRepository) Record(ctx context.Context, actorID *uint, action string, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode audit data: %w", err)
	}
	entry := models.AuditLog{ActorID: actorID, Action: action, Data: datatypes.JSON(raw)}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record audit log: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.WithContext(ctx).Where("action = ?", action).Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
