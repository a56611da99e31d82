package errs

import "errors"

var (
	ErrCameraNotFound     = errors.New("camera not found")
	ErrCameraUnavailable  = errors.New("camera is not available")
	ErrNoAddress          = errors.New("camera has no address")
	ErrNoFrame            = errors.New("no frame available")
	ErrScaleNotCalibrated = errors.New("camera scale factor is not calibrated")

	ErrScheduleNotFound = errors.New("schedule not found")

	ErrAnchorNotFound = errors.New("qr code not found")
	ErrAnchorExists   = errors.New("qr code already exists")
	ErrNoMarkers      = errors.New("no markers detected")

	ErrInvalidInterval  = errors.New("invalid interval")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrInvalidMarkSize  = errors.New("marker size must be positive")

	ErrCycleTimeout = errors.New("capture cycle timed out")
)
