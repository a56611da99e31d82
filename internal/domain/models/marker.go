package models

import "time"

// MarkerAnchor is the first-seen position of a named marker. It is never updated.
type MarkerAnchor struct {
	QRCodeID    int64     `json:"qr_code_id" db:"qr_code_id"`
	NameROI     string    `json:"name_roi" db:"name_roi"`
	InitialX    int       `json:"initial_x" db:"initial_x"`
	InitialY    int       `json:"initial_y" db:"initial_y"`
	InitialTime time.Time `json:"initial_time" db:"initial_time"`
}

type Measurement struct {
	MeasurementID int64     `json:"measurement_id" db:"measurement_id"`
	X             int       `json:"x" db:"x"`
	Y             int       `json:"y" db:"y"`
	QRCodeID      int64     `json:"qr_code_id" db:"qr_code_id"`
	TrackingTime  time.Time `json:"tracking_time" db:"tracking_time"`
}
