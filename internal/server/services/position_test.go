package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/logging"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPositionService(t *testing.T) (*PositionService, *fakePositions) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	positions := newFakePositions()
	return NewPositionService(db, &fakeRepoManager{positions: positions}, logging.Nop{}), positions
}

func TestPositionCreate(t *testing.T) {
	svc, _ := newPositionService(t)

	p, err := svc.Create(context.Background(), "DEV", "Developer", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.PositionID)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, int64(7), *p.CreatedBy)

	_, err = svc.Create(context.Background(), "", "Developer", 7)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestPositionGetAndList(t *testing.T) {
	svc, _ := newPositionService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "DEV", "Developer", 1)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "QA", "Tester", 1)
	require.NoError(t, err)

	p, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "QA", p.PositionCode)

	_, err = svc.Get(ctx, 3)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorContains(t, err, "position with id 3")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPositionUpdate(t *testing.T) {
	svc, _ := newPositionService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "DEV", "Developer", 1)
	require.NoError(t, err)

	name := "Senior Developer"
	p, err := svc.Update(ctx, 1, models.PositionPatch{PositionName: &name})
	require.NoError(t, err)
	assert.Equal(t, "DEV", p.PositionCode)
	assert.Equal(t, name, p.PositionName)

	_, err = svc.Update(ctx, 9, models.PositionPatch{PositionName: &name})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	empty := ""
	_, err = svc.Update(ctx, 1, models.PositionPatch{PositionCode: &empty})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestPositionDelete(t *testing.T) {
	svc, positions := newPositionService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "DEV", "Developer", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1))
	assert.ErrorIs(t, svc.Delete(ctx, 1), common.ErrorNotFound)

	positions.err = errBoom
	assert.ErrorIs(t, svc.Delete(ctx, 1), common.ErrorInternal)
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, common.ErrorInternal)
}
