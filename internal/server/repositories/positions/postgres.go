package positions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/dbx"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosition(s scanner) (*models.Position, error) {
	p := &models.Position{}
	var createdBy sql.NullInt64
	if err := s.Scan(&p.PositionID, &p.PositionCode, &p.PositionName, &createdBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if createdBy.Valid {
		v := createdBy.Int64
		p.CreatedBy = &v
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Position, error) {
	query :=
		`SELECT position_id, position_code, position_name, id FROM positions
		 ORDER BY position_id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Position, error) {
	query :=
		`SELECT position_id, position_code, position_name, id FROM positions
		 WHERE position_id = $1
		 `
	return scanPosition(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Position) (*models.Position, error) {
	query :=
		`INSERT INTO positions (position_code, position_name, id)
		 VALUES ($1, $2, $3)
		 RETURNING position_id
		 `

	err := r.db.QueryRowContext(ctx, query, p.PositionCode, p.PositionName, p.CreatedBy).Scan(&p.PositionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.PositionPatch) (*models.Position, error) {
	query :=
		`UPDATE positions
		 SET position_code = COALESCE($2, position_code),
		     position_name = COALESCE($3, position_name)
		 WHERE position_id = $1
		 RETURNING position_id, position_code, position_name, id
		 `
	return scanPosition(r.db.QueryRowContext(ctx, query, id, patch.PositionCode, patch.PositionName))
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query :=
		`DELETE FROM positions
		 WHERE position_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
