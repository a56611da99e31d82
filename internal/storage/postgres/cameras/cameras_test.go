package camerastorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres/storagetest"
)

func TestCameraStorage(t *testing.T) {
	ctx := context.Background()
	s := New(storagetest.NewSQLite(t))

	cams, err := s.Cameras(ctx)
	require.NoError(t, err)
	assert.Empty(t, cams)

	scale := 0.25
	north, err := s.Save(ctx, models.Camera{Name: "north", RTSPURL: "rtsp://10.0.0.1/stream", ScaleFactor: &scale})
	require.NoError(t, err)
	south, err := s.Save(ctx, models.Camera{Name: "south", RTSPURL: "rtsp://10.0.0.2/stream"})
	require.NoError(t, err)
	assert.NotEqual(t, north.CameraID, south.CameraID)

	cams, err = s.Cameras(ctx)
	require.NoError(t, err)
	require.Len(t, cams, 2)
	assert.Equal(t, "north", cams[0].Name)
	require.NotNil(t, cams[0].ScaleFactor)
	assert.InDelta(t, 0.25, *cams[0].ScaleFactor, 1e-9)
	assert.Nil(t, cams[1].ScaleFactor)

	got, err := s.Camera(ctx, south.CameraID)
	require.NoError(t, err)
	assert.Equal(t, "rtsp://10.0.0.2/stream", got.RTSPURL)

	_, err = s.Camera(ctx, 999)
	assert.ErrorIs(t, err, errs.ErrCameraNotFound)

	byID, err := s.CamerasByIDs(ctx, north.CameraID, south.CameraID, 999)
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.Equal(t, "south", byID[south.CameraID].Name)

	require.NoError(t, s.UpdateScaleFactor(ctx, south.CameraID, 1.5))
	got, err = s.Camera(ctx, south.CameraID)
	require.NoError(t, err)
	require.NotNil(t, got.ScaleFactor)
	assert.InDelta(t, 1.5, *got.ScaleFactor, 1e-9)

	assert.ErrorIs(t, s.UpdateScaleFactor(ctx, 999, 1), errs.ErrCameraNotFound)
}

func TestCamerasByIDsEmpty(t *testing.T) {
	s := New(storagetest.NewSQLite(t))

	res, err := s.CamerasByIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res)
}
