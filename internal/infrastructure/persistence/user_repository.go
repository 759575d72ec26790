package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserReader implements identity.UserReader using GORM
type GormUserReader struct {
	conn *Connector
}

// NewGormUserReader creates a new GormUserReader
func NewGormUserReader(conn *Connector) *GormUserReader {
	return &GormUserReader{conn: conn}
}

// FindByID finds a user by ID
func (r *GormUserReader) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var model models.UserModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user := model.ToUser()
	return &user, nil
}

// FindByIDs returns users keyed by ID; unknown IDs are absent from the map
func (r *GormUserReader) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]identity.User, error) {
	result := make(map[uuid.UUID]identity.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.UserModel
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToUser()
	}
	return result, nil
}
