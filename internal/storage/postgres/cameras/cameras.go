package camerastorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres"
)

type CameraStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *CameraStorage {
	return &CameraStorage{
		db: db,
	}
}

const columns = "camera_id, name, rtsp_url, conversion_rate"

func (s *CameraStorage) Cameras(ctx context.Context) ([]models.Camera, error) {
	const op = "storage.postgres.cameras.Cameras"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY camera_id`, columns, postgres.CamerasTable)

	var cams []models.Camera
	if err := conn.SelectContext(ctx, &cams, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cams, nil
}

func (s *CameraStorage) Camera(ctx context.Context, cameraID int64) (models.Camera, error) {
	const op = "storage.postgres.cameras.Camera"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE camera_id = ?`, columns, postgres.CamerasTable))

	var cam models.Camera
	if err := conn.GetContext(ctx, &cam, query, cameraID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Camera{}, fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
		}

		return models.Camera{}, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}

// CamerasByIDs returns the cameras found among ids, keyed by id.
func (s *CameraStorage) CamerasByIDs(ctx context.Context, ids ...int64) (map[int64]models.Camera, error) {
	const op = "storage.postgres.cameras.CamerasByIDs"

	res := make(map[int64]models.Camera, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM %s WHERE camera_id IN (?)`, columns, postgres.CamerasTable), ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	var cams []models.Camera
	if err := conn.SelectContext(ctx, &cams, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, cam := range cams {
		res[cam.CameraID] = cam
	}

	return res, nil
}

func (s *CameraStorage) UpdateScaleFactor(ctx context.Context, cameraID int64, scale float64) error {
	const op = "storage.postgres.cameras.UpdateScaleFactor"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`UPDATE %s SET conversion_rate = ? WHERE camera_id = ?`, postgres.CamerasTable))

	res, err := conn.ExecContext(ctx, query, scale, cameraID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrCameraNotFound)
	}

	return nil
}

// Save inserts a camera. Cameras are administered outside the tracking core;
// this exists for provisioning tools and tests.
func (s *CameraStorage) Save(ctx context.Context, cam models.Camera) (models.Camera, error) {
	const op = "storage.postgres.cameras.Save"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return cam, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`INSERT INTO %s (name, rtsp_url, conversion_rate) VALUES (?, ?, ?) RETURNING %s`,
		postgres.CamerasTable, columns))

	if err := conn.QueryRowxContext(ctx, query, cam.Name, cam.RTSPURL, cam.ScaleFactor).StructScan(&cam); err != nil {
		return cam, fmt.Errorf("%s: %w", op, err)
	}

	return cam, nil
}
