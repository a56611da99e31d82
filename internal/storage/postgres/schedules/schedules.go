package schedulestorage

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

type ScheduleStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *ScheduleStorage {
	return &ScheduleStorage{
		db: db,
	}
}

const columns = "schedule_time_id, capture_time, is_active"

func (s *ScheduleStorage) ActiveSchedules(ctx context.Context) ([]models.ScheduleEntry, error) {
	const op = "storage.postgres.schedules.ActiveSchedules"

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE is_active = ? ORDER BY capture_time`, columns, postgres.SchedulesTable)

	entries, err := s.list(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

func (s *ScheduleStorage) Schedules(ctx context.Context) ([]models.ScheduleEntry, error) {
	const op = "storage.postgres.schedules.Schedules"

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY capture_time`, columns, postgres.SchedulesTable)

	entries, err := s.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

func (s *ScheduleStorage) list(ctx context.Context, query string, args ...any) ([]models.ScheduleEntry, error) {
	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var entries []models.ScheduleEntry
	if err := conn.SelectContext(ctx, &entries, conn.Rebind(query), args...); err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *ScheduleStorage) SetActive(ctx context.Context, scheduleID int64, active bool) (models.ScheduleEntry, error) {
	const op = "storage.postgres.schedules.SetActive"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`UPDATE %s SET is_active = ? WHERE schedule_time_id = ? RETURNING %s`,
		postgres.SchedulesTable, columns))

	var entry models.ScheduleEntry
	if err := conn.GetContext(ctx, &entry, query, active, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScheduleEntry{}, fmt.Errorf("%s: %w", op, errs.ErrScheduleNotFound)
		}

		return models.ScheduleEntry{}, fmt.Errorf("%s: %w", op, err)
	}

	return entry, nil
}

func (s *ScheduleStorage) Save(ctx context.Context, entry models.ScheduleEntry) (models.ScheduleEntry, error) {
	const op = "storage.postgres.schedules.Save"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return entry, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`INSERT INTO %s (capture_time, is_active) VALUES (?, ?) RETURNING %s`,
		postgres.SchedulesTable, columns))

	if err := conn.GetContext(ctx, &entry, query, entry.CaptureTime, entry.IsActive); err != nil {
		return entry, fmt.Errorf("%s: %w", op, err)
	}

	return entry, nil
}
