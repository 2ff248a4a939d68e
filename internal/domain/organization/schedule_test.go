package organization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedule_Validate(t *testing.T) {
	assert.NoError(t, Schedule{DayOfWeek: 1, Hour: 9, Minute: 0}.Validate())
	assert.NoError(t, Schedule{DayOfWeek: 6, Hour: 23, Minute: 59, Frequency: FrequencyMonthly}.Validate())

	assert.Error(t, Schedule{DayOfWeek: 7, Hour: 9}.Validate())
	assert.Error(t, Schedule{DayOfWeek: -1, Hour: 9}.Validate())
	assert.Error(t, Schedule{DayOfWeek: 1, Hour: 24}.Validate())
	assert.Error(t, Schedule{DayOfWeek: 1, Hour: 9, Minute: 60}.Validate())
	assert.Error(t, Schedule{DayOfWeek: 1, Hour: 9, Frequency: "hourly"}.Validate())
}

func TestSchedule_CronSpec(t *testing.T) {
	assert.Equal(t, "0 9 * * 1", Schedule{DayOfWeek: 1, Hour: 9, Minute: 0, Frequency: FrequencyWeekly}.CronSpec())
	assert.Equal(t, "30 17 * * 2", Schedule{DayOfWeek: 2, Hour: 17, Minute: 30, Frequency: FrequencyMonthly}.CronSpec())
	assert.Equal(t, "5 8 * * *", Schedule{DayOfWeek: 2, Hour: 8, Minute: 5, Frequency: FrequencyDaily}.CronSpec())
}

func TestSchedule_Due(t *testing.T) {
	// 2024-01-08 is a Monday in ISO week 2, 2024-01-15 in week 3.
	evenWeek := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	oddWeek := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	weekly := Schedule{Frequency: FrequencyWeekly}
	assert.True(t, weekly.Due(evenWeek))
	assert.True(t, weekly.Due(oddWeek))

	biweekly := Schedule{Frequency: FrequencyBiweekly}
	assert.True(t, biweekly.Due(evenWeek))
	assert.False(t, biweekly.Due(oddWeek))

	monthly := Schedule{Frequency: FrequencyMonthly}
	assert.True(t, monthly.Due(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, monthly.Due(time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)))
	assert.False(t, monthly.Due(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)))
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("")
	assert.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)

	f, err = ParseFrequency(" BiWeekly ")
	assert.NoError(t, err)
	assert.Equal(t, FrequencyBiweekly, f)

	_, err = ParseFrequency("yearly")
	assert.Error(t, err)
}
