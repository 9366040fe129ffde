package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrBadFrequency = errors.New("invalid backup frequency")
	ErrDump         = errors.New("dump failed")
	ErrCompress     = errors.New("compression failed")
	ErrVerify       = errors.New("verification failed")
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

type DatabasePolicy struct {
	Name      string
	Frequency Frequency
	Compress  bool
	Verify    bool
}

type ServerProfile struct {
	Key       string
	User      string
	Password  string
	Hostname  string
	Port      int
	Engine    Engine
	Databases []DatabasePolicy
}

// Tools holds the paths of the external executables.
type Tools struct {
	MySQLDump string
	PgDump    string
	Bzip2     string
	Gzip      string
	P7zip     string
}

type RunSchedule struct {
	DayOfWeek          time.Weekday
	DayOfMonth         int
	DataDir            string
	UseTimestampSuffix bool
	Codec              Codec
	Tools              Tools
}

type Status int

const (
	StatusSucceeded Status = iota
	StatusSkippedSchedule
	StatusSkippedBadFrequency
	StatusFailedDump
	StatusFailedCompress
	StatusFailedVerify
)

var statusNames = map[Status]string{
	StatusSucceeded:           "SUCCEEDED",
	StatusSkippedSchedule:     "SKIPPED_SCHEDULE",
	StatusSkippedBadFrequency: "SKIPPED_BAD_FREQUENCY",
	StatusFailedDump:          "FAILED_DUMP",
	StatusFailedCompress:      "FAILED_COMPRESS",
	StatusFailedVerify:        "FAILED_VERIFY",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(%d)", int(s))
}

func (s Status) Failed() bool {
	return s >= StatusFailedDump
}

// StatusFromError maps a pipeline error to the outcome status it produces.
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusSucceeded
	case errors.Is(err, ErrBadFrequency):
		return StatusSkippedBadFrequency
	case errors.Is(err, ErrVerify):
		return StatusFailedVerify
	case errors.Is(err, ErrCompress):
		return StatusFailedCompress
	}
	return StatusFailedDump
}

type BackupOutcome struct {
	Server   string
	Database string
	Status   Status
	File     string
	Err      error
}

// ToolError is returned when an external tool reports a problem.
type ToolError struct {
	Tool     string
	Stderr   string
	ExitCode int
	Cause    error
}

func (e *ToolError) Error() string {
	switch {
	case e.Stderr != "":
		return fmt.Sprintf("%s: %s", e.Tool, e.Stderr)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Tool, e.Cause)
	}
	return fmt.Sprintf("%s: exit status %d", e.Tool, e.ExitCode)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts lowercase English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdays[s]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%q is not a valid day of week", s)
}
