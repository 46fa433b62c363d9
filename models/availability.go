package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type DoctorStatus string

const (
	DoctorAvailable DoctorStatus = "available"
	DoctorBusy      DoctorStatus = "busy"
	DoctorOffline   DoctorStatus = "offline"
)

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DayHours is one weekday's consultation window in 24h "HH:MM" format.
type DayHours struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Enabled   bool   `json:"enabled"`
}

// WeekSchedule maps weekday to working hours, stored as a JSONB column.
type WeekSchedule map[DayOfWeek]DayHours

// Value implements the driver.Valuer interface
func (w WeekSchedule) Value() (driver.Value, error) {
	jsonData, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (w *WeekSchedule) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal WeekSchedule: unsupported type %T", value)
	}

	return json.Unmarshal(data, w)
}

// Validate checks every enabled day parses as "HH:MM" and starts before it ends.
func (w WeekSchedule) Validate() error {
	layout := "15:04"
	for day, hours := range w {
		if !hours.Enabled {
			continue
		}
		start, err := time.Parse(layout, hours.StartTime)
		if err != nil {
			return fmt.Errorf("day %d: invalid start time %q", day, hours.StartTime)
		}
		end, err := time.Parse(layout, hours.EndTime)
		if err != nil {
			return fmt.Errorf("day %d: invalid end time %q", day, hours.EndTime)
		}
		if !start.Before(end) {
			return fmt.Errorf("day %d: start time %s must be before end time %s", day, hours.StartTime, hours.EndTime)
		}
	}
	return nil
}

// DayEnabled reports whether the doctor consults on the given weekday.
func (w WeekSchedule) DayEnabled(day time.Weekday) bool {
	hours, ok := w[DayOfWeek(day)]
	return ok && hours.Enabled
}

// DoctorAvailability is one row per doctor: live status, weekly working
// hours and the queue toggle. CurrentNumber is the queue number of the
// entry currently called or in consultation, nil when the doctor is idle.
type DoctorAvailability struct {
	gorm.Model
	DoctorID      uint         `json:"doctor_id" gorm:"uniqueIndex"`
	Status        DoctorStatus `json:"status"`
	WorkingHours  WeekSchedule `json:"working_hours" gorm:"type:jsonb"`
	QueueActive   bool         `json:"queue_active"`
	CurrentNumber *uint        `json:"current_number"`
}

func (d *DoctorAvailability) BeforeCreate(tx *gorm.DB) error {
	if d.Status == "" {
		d.Status = DoctorOffline
	}
	return nil
}
