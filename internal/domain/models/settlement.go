package models

import (
	"fmt"
	"time"
)

type Interval string

const (
	IntervalHour  Interval = "hour"
	IntervalDay   Interval = "day"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

func ParseInterval(s string) (Interval, error) {
	switch i := Interval(s); i {
	case IntervalHour, IntervalDay, IntervalMonth, IntervalYear:
		return i, nil
	case "":
		return IntervalHour, nil
	default:
		return "", fmt.Errorf("unknown interval %q", s)
	}
}

// Truncate returns the start of the bucket containing t.
func (i Interval) Truncate(t time.Time) time.Time {
	y, m, d := t.Date()

	switch i {
	case IntervalDay:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	case IntervalMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	case IntervalYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
	}
}

const BucketLayout = "2006-01-02 15:04:05"

type SettlementPoint struct {
	Time       string  `json:"time"`
	Settlement float64 `json:"settlement"`
}

type Calibration struct {
	CameraID       int64   `json:"camera_id"`
	MarkerSize     float64 `json:"marker_size"`
	ReferenceWidth int     `json:"reference_width"`
	ScaleFactor    float64 `json:"scale_factor"`
	MarkerName     string  `json:"marker_name"`
}
