package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/AzielCF/az-wabot/schedule/domain"
	"gorm.io/gorm"
)

// historyModel is the persistence model of a delivery audit entry.
type historyModel struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	PostID      string         `gorm:"column:post_id;not null;index"`
	Kind        string         `gorm:"column:kind;not null"`
	Event       string         `gorm:"column:event;not null;index"`
	ScheduledAt time.Time      `gorm:"column:scheduled_at;not null"`
	Preview     sql.NullString `gorm:"column:preview"`
	CreatedBy   sql.NullString `gorm:"column:created_by"`
	Error       sql.NullString `gorm:"column:error"`
	OccurredAt  time.Time      `gorm:"column:occurred_at;not null;index"`
}

func (historyModel) TableName() string { return "status_schedule_history" }

// HistoryGormRepository implements IHistoryRepository on top of GORM.
type HistoryGormRepository struct {
	db *gorm.DB
}

func NewHistoryGormRepository(db *gorm.DB) *HistoryGormRepository {
	return &HistoryGormRepository{db: db}
}

// Init creates the history table.
func (r *HistoryGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&historyModel{})
}

func (r *HistoryGormRepository) Append(ctx context.Context, entry domain.HistoryEntry) error {
	model := toHistoryModel(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Recent returns the newest entries first.
func (r *HistoryGormRepository) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var models []historyModel
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.HistoryEntry, len(models))
	for i, m := range models {
		result[i] = fromHistoryModel(m)
	}
	return result, nil
}

func toHistoryModel(e domain.HistoryEntry) historyModel {
	return historyModel{
		ID:          e.ID,
		PostID:      e.PostID,
		Kind:        string(e.Kind),
		Event:       string(e.Event),
		ScheduledAt: e.ScheduledAt.UTC(),
		Preview:     nullString(e.Preview),
		CreatedBy:   nullString(e.CreatedBy),
		Error:       nullString(e.Error),
		OccurredAt:  e.OccurredAt.UTC(),
	}
}

func fromHistoryModel(m historyModel) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:          m.ID,
		PostID:      m.PostID,
		Kind:        domain.Kind(m.Kind),
		Event:       domain.HistoryEvent(m.Event),
		ScheduledAt: m.ScheduledAt,
		Preview:     m.Preview.String,
		CreatedBy:   m.CreatedBy.String,
		Error:       m.Error.String,
		OccurredAt:  m.OccurredAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
