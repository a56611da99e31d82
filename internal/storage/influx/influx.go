// Package influx mirrors marker anchors and measurements into InfluxDB for
// dashboarding. The relational store stays the source of truth.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/hieu03092004/CameraTrackingBE/internal/config"
	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
	"github.com/hieu03092004/CameraTrackingBE/internal/lib/sl"
)

const (
	AnchorMeasurement = "marker_anchor"
	PointMeasurement  = "marker_position"
)

type pointWriter interface {
	WritePoint(point *influxdb2_write.Point)
	Flush()
}

type Mirror struct {
	log    *slog.Logger
	client influxdb2.Client
	writer pointWriter
}

func New(ctx context.Context, log *slog.Logger, cfg config.Influx) (*Mirror, error) {
	const op = "storage.influx.New"

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()

		if err == nil {
			err = fmt.Errorf("influxdb at %s is not ready", cfg.URL)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	writer := client.WriteAPI(cfg.Org, cfg.Bucket)

	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			log.Error("failed to write to influxdb", slog.String("bucket", cfg.Bucket), sl.Err(writeErr))
		}
	}(writer.Errors())

	return &Mirror{log: log, client: client, writer: writer}, nil
}

func (m *Mirror) AnchorCreated(cameraID int64, anchor models.MarkerAnchor) {
	m.writer.WritePoint(anchorPoint(cameraID, anchor))
}

func (m *Mirror) MeasurementAdded(cameraID int64, anchor models.MarkerAnchor, ms models.Measurement) {
	m.writer.WritePoint(measurementPoint(cameraID, anchor, ms))
}

func (m *Mirror) Close() {
	m.writer.Flush()
	if m.client != nil {
		m.client.Close()
	}
}

func anchorPoint(cameraID int64, a models.MarkerAnchor) *influxdb2_write.Point {
	return influxdb2.NewPoint(AnchorMeasurement,
		map[string]string{
			"camera_id": strconv.FormatInt(cameraID, 10),
			"name":      a.NameROI,
		},
		map[string]any{
			"qr_code_id": a.QRCodeID,
			"x":          a.InitialX,
			"y":          a.InitialY,
		},
		a.InitialTime,
	)
}

func measurementPoint(cameraID int64, a models.MarkerAnchor, ms models.Measurement) *influxdb2_write.Point {
	return influxdb2.NewPoint(PointMeasurement,
		map[string]string{
			"camera_id": strconv.FormatInt(cameraID, 10),
			"name":      a.NameROI,
		},
		map[string]any{
			"qr_code_id": ms.QRCodeID,
			"x":          ms.X,
			"y":          ms.Y,
			"dx":         ms.X - a.InitialX,
			"dy":         ms.Y - a.InitialY,
		},
		ms.TrackingTime,
	)
}
