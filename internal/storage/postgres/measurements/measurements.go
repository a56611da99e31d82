package measurementstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres"
)

type MeasurementStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *MeasurementStorage {
	return &MeasurementStorage{
		db: db,
	}
}

func (s *MeasurementStorage) CreateMeasurement(ctx context.Context, m models.Measurement) (models.Measurement, error) {
	const op = "storage.postgres.measurements.CreateMeasurement"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return models.Measurement{}, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`INSERT INTO %s (x, y, qr_code_id, tracking_time) VALUES (?, ?, ?, ?) RETURNING measurement_id`,
		postgres.MeasurementsTable))

	m.TrackingTime = m.TrackingTime.UTC()

	if err := conn.QueryRowxContext(ctx, query, m.X, m.Y, m.QRCodeID, m.TrackingTime).Scan(&m.MeasurementID); err != nil {
		return models.Measurement{}, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

// Measurements lists the readings of one anchor within [from, to], oldest first.
func (s *MeasurementStorage) Measurements(ctx context.Context, qrCodeID int64, from, to time.Time) ([]models.Measurement, error) {
	const op = "storage.postgres.measurements.Measurements"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`SELECT measurement_id, x, y, qr_code_id, tracking_time FROM %s
		WHERE qr_code_id = ? AND tracking_time BETWEEN ? AND ? ORDER BY tracking_time, measurement_id`, postgres.MeasurementsTable))

	var res []models.Measurement
	if err := conn.SelectContext(ctx, &res, query, qrCodeID, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}
