package implementation

import (
	"context"
	"errors"

	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/mapper"
	"agri-assist-be/internal/model"
	"agri-assist-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FarmerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewFarmerRepository(db *gorm.DB) contract.FarmerRepository {
	return &FarmerRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *FarmerRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Farmer, error) {
	var m model.Farmer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.FarmerToEntity(&m), nil
}
