package tracking

import (
	"fmt"
	"math"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

const DefaultDedupThreshold = 100

// Accept turns raw decoder output into deduplicated detections, in decode order.
// Only QR symbols are considered. A detection whose center is closer than
// threshold on both axes to an already accepted one is dropped.
func Accept(raw []models.RawDetection, cameraID int64, threshold int) []models.DetectionRecord {
	if threshold <= 0 {
		threshold = DefaultDedupThreshold
	}

	accepted := make([]models.DetectionRecord, 0, len(raw))

	for _, det := range raw {
		if det.Format != models.FormatQRCode {
			continue
		}

		corners := roundCorners(det.Corners)
		center := centerOf(corners)

		if duplicate(center, accepted, threshold) {
			continue
		}

		rect := boundingRect(corners)

		name := det.Payload
		if name == "" {
			name = PlaceholderName(cameraID, len(accepted)+1)
		}

		accepted = append(accepted, models.DetectionRecord{
			Rect:           rect,
			Name:           name,
			ReferenceWidth: rect.Width(),
			Center:         center,
		})
	}

	return accepted
}

// PlaceholderName names a marker whose payload could not be read.
// n is the 1-based position among accepted detections of the frame.
func PlaceholderName(cameraID int64, n int) string {
	return fmt.Sprintf("QR_Camera_%d_%d", cameraID, n)
}

func roundCorners(in [4]models.PointF) [4]models.Point {
	var out [4]models.Point
	for i, p := range in {
		out[i] = models.Point{X: int(math.RoundToEven(p.X)), Y: int(math.RoundToEven(p.Y))}
	}

	return out
}

func centerOf(corners [4]models.Point) models.Point {
	var sx, sy int
	for _, p := range corners {
		sx += p.X
		sy += p.Y
	}

	return models.Point{
		X: int(math.RoundToEven(float64(sx) / 4)),
		Y: int(math.RoundToEven(float64(sy) / 4)),
	}
}

func duplicate(c models.Point, accepted []models.DetectionRecord, threshold int) bool {
	for _, a := range accepted {
		if absInt(c.X-a.Center.X) < threshold && absInt(c.Y-a.Center.Y) < threshold {
			return true
		}
	}

	return false
}

// boundingRect returns the corners' bounding box, growing the max edges so
// that both sides have even length.
func boundingRect(corners [4]models.Point) models.Rect {
	r := models.Rect{MinX: corners[0].X, MinY: corners[0].Y, MaxX: corners[0].X, MaxY: corners[0].Y}

	for _, p := range corners[1:] {
		r.MinX = min(r.MinX, p.X)
		r.MinY = min(r.MinY, p.Y)
		r.MaxX = max(r.MaxX, p.X)
		r.MaxY = max(r.MaxY, p.Y)
	}

	if (r.MaxX-r.MinX)%2 != 0 {
		r.MaxX++
	}
	if (r.MaxY-r.MinY)%2 != 0 {
		r.MaxY++
	}

	return r
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
