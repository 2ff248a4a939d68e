package organization

import (
	"fmt"
	"strings"
	"time"
)

// Frequency narrows how often a weekly trigger is allowed to run.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// ParseFrequency normalizes a configured frequency. Empty means weekly.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FrequencyWeekly, nil
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return f, nil
	default:
		return "", fmt.Errorf("unknown schedule frequency %q", s)
	}
}

// Schedule is a cron-style trigger description. DayOfWeek follows cron
// numbering: 0 is Sunday.
type Schedule struct {
	DayOfWeek int
	Hour      int
	Minute    int
	Frequency Frequency
}

func (s Schedule) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range 0-6", s.DayOfWeek)
	}
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0-23", s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("minute %d out of range 0-59", s.Minute)
	}
	if _, err := ParseFrequency(string(s.Frequency)); err != nil {
		return err
	}
	return nil
}

// CronSpec renders the five-field cron expression for the schedule.
// Frequencies coarser than weekly are enforced by Due at fire time.
func (s Schedule) CronSpec() string {
	if s.Frequency == FrequencyDaily {
		return fmt.Sprintf("%d %d * * *", s.Minute, s.Hour)
	}
	return fmt.Sprintf("%d %d * * %d", s.Minute, s.Hour, s.DayOfWeek)
}

// Due reports whether a trigger firing at t should actually run.
func (s Schedule) Due(t time.Time) bool {
	switch s.Frequency {
	case FrequencyBiweekly:
		_, week := t.ISOWeek()
		return week%2 == 0
	case FrequencyMonthly:
		return t.Day() <= 7
	default:
		return true
	}
}

func (s Schedule) String() string {
	freq := s.Frequency
	if freq == "" {
		freq = FrequencyWeekly
	}
	return fmt.Sprintf("%s at %02d:%02d (%s)", time.Weekday(s.DayOfWeek), s.Hour, s.Minute, freq)
}
