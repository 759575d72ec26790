package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/support"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMessageRepository implements support.MessageRepository using GORM
type GormMessageRepository struct {
	conn *Connector
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(conn *Connector) *GormMessageRepository {
	return &GormMessageRepository{conn: conn}
}

// FindByID finds a contact message by ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*support.ContactMessage, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var model models.ContactMessageModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists inbox messages, newest first by default
func (r *GormMessageRepository) FindAll(ctx context.Context, filter support.MessageFilter) ([]support.ContactMessage, int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.ContactMessageModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(subject) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var rows []models.ContactMessageModel
	if err := applyPage(applyOrder(query, filter.Filter, ContactMessageSortFields, "created_at"), filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	messages := make([]support.ContactMessage, len(rows))
	for i := range rows {
		messages[i] = *rows[i].ToDomain()
	}
	return messages, total, nil
}

// Create inserts a contact message
func (r *GormMessageRepository) Create(ctx context.Context, m *support.ContactMessage) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(models.ContactMessageModelFromDomain(m)).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// SaveWithLock saves a contact message with optimistic locking (version check)
func (r *GormMessageRepository) SaveWithLock(ctx context.Context, m *support.ContactMessage) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	model := models.ContactMessageModelFromDomain(m)
	result := db.Model(&models.ContactMessageModel{}).
		Where("id = ? AND version = ?", m.ID, m.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The message has been modified by another transaction")
	}
	return nil
}
