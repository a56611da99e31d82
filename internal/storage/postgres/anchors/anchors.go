package anchorstorage

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

// AnchorStorage keeps the marker registry (qr_codes). Rows are insert-only.
type AnchorStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *AnchorStorage {
	return &AnchorStorage{
		db: db,
	}
}

const columns = "qr_code_id, name_roi, initial_x, initial_y, initial_time"

func (s *AnchorStorage) AnchorByName(ctx context.Context, name string) (models.MarkerAnchor, error) {
	const op = "storage.postgres.anchors.AnchorByName"

	anchor, err := s.get(ctx, "name_roi", name)
	if err != nil {
		return models.MarkerAnchor{}, fmt.Errorf("%s: %w", op, err)
	}

	return anchor, nil
}

func (s *AnchorStorage) Anchor(ctx context.Context, qrCodeID int64) (models.MarkerAnchor, error) {
	const op = "storage.postgres.anchors.Anchor"

	anchor, err := s.get(ctx, "qr_code_id", qrCodeID)
	if err != nil {
		return models.MarkerAnchor{}, fmt.Errorf("%s: %w", op, err)
	}

	return anchor, nil
}

func (s *AnchorStorage) get(ctx context.Context, column string, value any) (models.MarkerAnchor, error) {
	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return models.MarkerAnchor{}, err
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, columns, postgres.QRCodesTable, column))

	var anchor models.MarkerAnchor
	if err := conn.GetContext(ctx, &anchor, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MarkerAnchor{}, errs.ErrAnchorNotFound
		}

		return models.MarkerAnchor{}, err
	}

	return anchor, nil
}

func (s *AnchorStorage) AnchorsByIDs(ctx context.Context, ids ...int64) (map[int64]models.MarkerAnchor, error) {
	const op = "storage.postgres.anchors.AnchorsByIDs"

	res := make(map[int64]models.MarkerAnchor, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM %s WHERE qr_code_id IN (?)`, columns, postgres.QRCodesTable), ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	var anchors []models.MarkerAnchor
	if err := conn.SelectContext(ctx, &anchors, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, a := range anchors {
		res[a.QRCodeID] = a
	}

	return res, nil
}

// CreateAnchor inserts a new anchor. It returns errs.ErrAnchorExists when the
// name is already registered, leaving the existing row untouched.
func (s *AnchorStorage) CreateAnchor(ctx context.Context, anchor models.MarkerAnchor) (models.MarkerAnchor, error) {
	const op = "storage.postgres.anchors.CreateAnchor"

	conn, err := postgres.Conn(ctx, s.db)
	if err != nil {
		return models.MarkerAnchor{}, fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()

	query := conn.Rebind(fmt.Sprintf(`INSERT INTO %s (name_roi, initial_x, initial_y, initial_time) VALUES (?, ?, ?, ?)
		ON CONFLICT (name_roi) DO NOTHING RETURNING qr_code_id`, postgres.QRCodesTable))

	anchor.InitialTime = anchor.InitialTime.UTC()

	err = conn.QueryRowxContext(ctx, query, anchor.NameROI, anchor.InitialX, anchor.InitialY, anchor.InitialTime).Scan(&anchor.QRCodeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MarkerAnchor{}, fmt.Errorf("%s: %w", op, errs.ErrAnchorExists)
		}

		return models.MarkerAnchor{}, fmt.Errorf("%s: %w", op, err)
	}

	return anchor, nil
}
