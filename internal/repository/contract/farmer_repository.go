package contract

import (
	"context"

	"agri-assist-be/internal/entity"

	"github.com/google/uuid"
)

// FarmerRepository reads profiles supplied by the identity provider.
type FarmerRepository interface {
	FindById(ctx context.Context, id uuid.UUID) (*entity.Farmer, error)
}
