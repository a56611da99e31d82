package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ScheduleEntry struct {
	ScheduleTimeID int64     `json:"schedule_time_id" db:"schedule_time_id"`
	CaptureTime    TimeOfDay `json:"capture_time" db:"capture_time"`
	IsActive       bool      `json:"is_active" db:"is_active"`
}

// TimeOfDay is a wall-clock time without a date, stored as HH:MM:SS.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)

	for _, layout := range []string{"15:04:05", "15:04", "15:04:05.999999"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}

	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Scan accepts the representations drivers use for TIME columns: time.Time
// from lib/pq and text from sqlite.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDay{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported capture_time type %T", src)
	}
}

func (t *TimeOfDay) parse(s string) error {
	// sqlite may hand back a full timestamp when the column was written as one.
	if i := strings.LastIndexAny(s, " T"); i >= 0 {
		s = s[i+1:]
	}

	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	return t.parse(s)
}
