package repository

import (
	"context"
	"errors"
	"time"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository writes and reads the immutable audit trail.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit entry.
func (r *AuditRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByTransaction returns every audit entry written under one bulk
// transaction, oldest first.
func (r *AuditRepository) ListByTransaction(ctx context.Context, transactionID string) ([]entity.AuditLog, error) {
	var entries []entity.AuditLog
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// ListByProject returns recent audit entries for a project, newest
// first, with paging.
func (r *AuditRepository) ListByProject(ctx context.Context, projectID string, page, pageSize int) ([]entity.AuditLog, int64, error) {
	var entries []entity.AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.AuditLog{}).
		Where("project_id = ?", projectID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, err
}

// CreateTransaction records a bulk transaction.
func (r *AuditRepository) CreateTransaction(ctx context.Context, txn *entity.BulkTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// FindTransaction loads a bulk transaction.
func (r *AuditRepository) FindTransaction(ctx context.Context, id string) (*entity.BulkTransaction, error) {
	var txn entity.BulkTransaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// MarkRolledBack flags a bulk transaction as reversed.
func (r *AuditRepository) MarkRolledBack(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.BulkTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         entity.TransactionStatusRolledBack,
			"rolled_back_at": now,
		}).Error
}
