package positions

import (
	"context"

	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Position, error)
	GetByID(ctx context.Context, id int64) (*models.Position, error)
	Create(ctx context.Context, p *models.Position) (*models.Position, error)
	Update(ctx context.Context, id int64, patch models.PositionPatch) (*models.Position, error)
	Delete(ctx context.Context, id int64) error
}
