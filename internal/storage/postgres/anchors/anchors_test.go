package anchorstorage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/storagetest"
)

func TestAnchorRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(storagetest.NewSQLite(t))

	at := time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)

	created, err := s.CreateAnchor(ctx, models.MarkerAnchor{NameROI: "P-01", InitialX: 100, InitialY: 200, InitialTime: at})
	require.NoError(t, err)
	assert.NotZero(t, created.QRCodeID)

	byName, err := s.AnchorByName(ctx, "P-01")
	require.NoError(t, err)
	assert.Equal(t, created.QRCodeID, byName.QRCodeID)
	assert.Equal(t, 100, byName.InitialX)
	assert.Equal(t, 200, byName.InitialY)
	assert.True(t, at.Equal(byName.InitialTime))

	byID, err := s.Anchor(ctx, created.QRCodeID)
	require.NoError(t, err)
	assert.Equal(t, "P-01", byID.NameROI)
}

func TestCreateAnchorDuplicateName(t *testing.T) {
	ctx := context.Background()
	s := New(storagetest.NewSQLite(t))

	first, err := s.CreateAnchor(ctx, models.MarkerAnchor{NameROI: "P-02", InitialX: 10, InitialY: 20, InitialTime: time.Now()})
	require.NoError(t, err)

	_, err = s.CreateAnchor(ctx, models.MarkerAnchor{NameROI: "P-02", InitialX: 99, InitialY: 99, InitialTime: time.Now()})
	require.ErrorIs(t, err, errs.ErrAnchorExists)

	got, err := s.AnchorByName(ctx, "P-02")
	require.NoError(t, err)
	assert.Equal(t, first.QRCodeID, got.QRCodeID)
	assert.Equal(t, 10, got.InitialX)
	assert.Equal(t, 20, got.InitialY)
}

func TestAnchorNotFound(t *testing.T) {
	ctx := context.Background()
	s := New(storagetest.NewSQLite(t))

	_, err := s.AnchorByName(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrAnchorNotFound)

	_, err = s.Anchor(ctx, 42)
	assert.ErrorIs(t, err, errs.ErrAnchorNotFound)
}

func TestAnchorsByIDs(t *testing.T) {
	ctx := context.Background()
	s := New(storagetest.NewSQLite(t))

	a, err := s.CreateAnchor(ctx, models.MarkerAnchor{NameROI: "A", InitialTime: time.Now()})
	require.NoError(t, err)
	b, err := s.CreateAnchor(ctx, models.MarkerAnchor{NameROI: "B", InitialTime: time.Now()})
	require.NoError(t, err)

	res, err := s.AnchorsByIDs(ctx, a.QRCodeID, b.QRCodeID)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "A", res[a.QRCodeID].NameROI)
	assert.Equal(t, "B", res[b.QRCodeID].NameROI)
}
