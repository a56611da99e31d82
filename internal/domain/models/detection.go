package models

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned bounding box in pixels.
type Rect struct {
	MinX int `json:"x_min"`
	MinY int `json:"y_min"`
	MaxX int `json:"x_max"`
	MaxY int `json:"y_max"`
}

func (r Rect) Width() int {
	return abs(r.MaxX - r.MinX)
}

func (r Rect) Height() int {
	return abs(r.MaxY - r.MinY)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}

type Resolution string

const (
	ResolutionAnchorCreated    Resolution = "anchor_created"
	ResolutionMeasurementAdded Resolution = "measurement_added"
	ResolutionSkipped          Resolution = "skipped"
)

type DetectionRecord struct {
	Rect           Rect   `json:"rect"`
	Name           string `json:"name"`
	ReferenceWidth int    `json:"reference_width"`
	Center         Point  `json:"center"`

	Resolution    Resolution `json:"resolution,omitempty"`
	QRCodeID      int64      `json:"qr_code_id,omitempty"`
	MeasurementID int64      `json:"measurement_id,omitempty"`
	Error         string     `json:"error,omitempty"`
	Err           error      `json:"-"`
}

// Persisted reports whether the detection produced a row.
func (d DetectionRecord) Persisted() bool {
	return d.Resolution == ResolutionAnchorCreated || d.Resolution == ResolutionMeasurementAdded
}
