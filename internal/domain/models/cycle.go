package models

import "time"

type CaptureOutcome struct {
	CameraID        int64             `json:"camera_id"`
	CameraName      string            `json:"camera_name"`
	Success         bool              `json:"success"`
	TimedOut        bool              `json:"timed_out,omitempty"`
	Markers         int               `json:"markers"`
	Detections      []DetectionRecord `json:"detections,omitempty"`
	CaptureDuration time.Duration     `json:"capture_duration"`
	ResolveDuration time.Duration     `json:"resolve_duration"`
	SnapshotKey     string            `json:"snapshot_key,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	Err             error             `json:"-"`
}

type CycleTiming struct {
	Wall         time.Duration `json:"wall"`
	CaptureTotal time.Duration `json:"capture_total"`
	CaptureMax   time.Duration `json:"capture_max"`
	ResolveTotal time.Duration `json:"resolve_total"`
	ResolveMax   time.Duration `json:"resolve_max"`
}

type CycleReport struct {
	CycleID    string           `json:"cycle_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Cameras    int              `json:"cameras"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	TimedOut   int              `json:"timed_out"`
	Markers    int              `json:"markers"`
	Timing     CycleTiming      `json:"timing"`
	Outcomes   []CaptureOutcome `json:"outcomes"`
	Failures   []CaptureOutcome `json:"failures"`
}
