package models

type Camera struct {
	CameraID int64  `json:"camera_id" db:"camera_id"`
	Name     string `json:"name" db:"name"`
	RTSPURL  string `json:"rtsp_url" db:"rtsp_url"`
	// ScaleFactor converts pixels to engineering units. Nil until the camera is calibrated.
	ScaleFactor *float64 `json:"conversion_rate" db:"conversion_rate"`
}
