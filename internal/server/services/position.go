package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/logging"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/repomanager"
)

type PositionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewPositionService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PositionService {
	return &PositionService{db: db, repomanager: m, logger: logger.With("module", "positions")}
}

func positionNotFound(id int64) error {
	return fmt.Errorf("position with id %d: %w", id, common.ErrorNotFound)
}

func (s *PositionService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "position "+op+" failed", "error", err)
	return common.ErrorInternal
}

func (s *PositionService) List(ctx context.Context) ([]*models.Position, error) {
	list, err := s.repomanager.Positions(s.db).List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list", err)
	}
	return list, nil
}

func (s *PositionService) Get(ctx context.Context, id int64) (*models.Position, error) {
	p, err := s.repomanager.Positions(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, positionNotFound(id)
		}
		return nil, s.internal(ctx, "get", err)
	}
	return p, nil
}

// Create stores a new position attributed to createdBy.
func (s *PositionService) Create(ctx context.Context, code, name string, createdBy int64) (*models.Position, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: position_code and position_name are required", common.ErrValidation)
	}

	p := &models.Position{PositionCode: code, PositionName: name}
	if createdBy != 0 {
		p.CreatedBy = &createdBy
	}

	p, err := s.repomanager.Positions(s.db).Create(ctx, p)
	if err != nil {
		return nil, s.internal(ctx, "create", err)
	}
	return p, nil
}

func (s *PositionService) Update(ctx context.Context, id int64, patch models.PositionPatch) (*models.Position, error) {
	if (patch.PositionCode != nil && *patch.PositionCode == "") ||
		(patch.PositionName != nil && *patch.PositionName == "") {
		return nil, fmt.Errorf("%w: position_code and position_name must not be empty", common.ErrValidation)
	}

	p, err := s.repomanager.Positions(s.db).Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, positionNotFound(id)
		}
		return nil, s.internal(ctx, "update", err)
	}
	return p, nil
}

func (s *PositionService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Positions(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return positionNotFound(id)
		}
		return s.internal(ctx, "delete", err)
	}
	return nil
}
