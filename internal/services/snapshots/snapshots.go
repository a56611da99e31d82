package snapshots

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/blob"
)

type Annotator interface {
	Annotate(frame models.Frame, detections []models.DetectionRecord, header string) ([]byte, error)
}

type BlobSaver interface {
	Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error)
}

// Service archives annotated frames so each cycle's detections can be inspected later.
type Service struct {
	log       *slog.Logger
	store     BlobSaver
	annotator Annotator
	now       func() time.Time
}

func New(log *slog.Logger, store BlobSaver, annotator Annotator) *Service {
	return &Service{
		log:       log,
		store:     store,
		annotator: annotator,
		now:       time.Now,
	}
}

func (s *Service) Archive(ctx context.Context, cam models.Camera, frame models.Frame, detections []models.DetectionRecord) (string, error) {
	const op = "service.snapshots.Archive"

	at := frame.CapturedAt
	if at.IsZero() {
		at = s.now()
	}

	header := fmt.Sprintf("Camera %d | %s | %d QR", cam.CameraID, at.Format("2006-01-02 15:04:05"), len(detections))

	img, err := s.annotator.Annotate(frame, detections, header)
	if err != nil {
		return "", fmt.Errorf("%s: annotate: %w", op, err)
	}

	key := Key(cam.CameraID, at, uuid.NewString())

	info, err := s.store.Put(ctx, key, bytes.NewReader(img), blob.PutOptions{
		ContentType: "image/jpeg",
		Metadata: map[string]string{
			"camera_id": strconv.FormatInt(cam.CameraID, 10),
			"markers":   strconv.Itoa(len(detections)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("snapshot archived",
		slog.String("op", op),
		slog.Int64("camera_id", cam.CameraID),
		slog.String("key", info.Key),
	)

	return info.Key, nil
}

func Key(cameraID int64, at time.Time, id string) string {
	return fmt.Sprintf("camera_%d/%s_%s.jpg", cameraID, at.UTC().Format("20060102_150405.000"), id)
}
