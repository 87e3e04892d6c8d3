package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

// at 返回 2024-01-07（周日）所在那一周的某一天的某个时刻
func at(t *testing.T, day time.Weekday, clock string) time.Time {
	t.Helper()
	tod, err := ParseTimeOfDay(clock)
	require.NoError(t, err)
	return time.Date(2024, time.January, 7+int(day), 0, 0, 0, 0, time.UTC).Add(time.Duration(tod) * time.Second)
}

func scheduleWith(day time.Weekday, open, closeAt string) *domain.WeeklySchedule {
	s := &domain.WeeklySchedule{StoreID: 1}
	s.Days[day] = domain.DayWindow{Open: open, Close: closeAt}
	return s
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:00:00", 9 * 3600, false},
		{"17:00", 17 * 3600, false},
		{" 08:59:59 ", 8*3600 + 59*60 + 59, false},
		{"23:59:59.999", 23*3600 + 59*60 + 59, false},
		{"", 0, true},
		{"9am", 0, true},
		{"25:00:00", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrMalformedTime, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "08:05:09", TimeOfDay(8*3600+5*60+9).String())
}

func TestIsOpenAtMondayBusinessHours(t *testing.T) {
	s := scheduleWith(time.Monday, "09:00", "17:00")

	assert.True(t, IsOpenAt(s, at(t, time.Monday, "09:00:00")))
	assert.True(t, IsOpenAt(s, at(t, time.Monday, "12:30:00")))
	assert.True(t, IsOpenAt(s, at(t, time.Monday, "17:00:00")))
	assert.False(t, IsOpenAt(s, at(t, time.Monday, "17:00:01")))
	assert.False(t, IsOpenAt(s, at(t, time.Monday, "08:59:59")))
	assert.False(t, IsOpenAt(s, at(t, time.Tuesday, "12:00:00")))
}

func TestIsOpenAtEveryDay(t *testing.T) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		s := scheduleWith(day, "08:30:00", "20:15:00")

		assert.True(t, IsOpenAt(s, at(t, day, "08:30:00")), day.String())
		assert.True(t, IsOpenAt(s, at(t, day, "20:15:00")), day.String())
		assert.False(t, IsOpenAt(s, at(t, day, "08:29:59")), day.String())
		assert.False(t, IsOpenAt(s, at(t, day, "20:15:01")), day.String())

		// 其他日期都没有设置营业时间
		other := (day + 1) % 7
		assert.False(t, IsOpenAt(s, at(t, other, "12:00:00")), day.String())
	}
}

func TestIsOpenAtUnsetDay(t *testing.T) {
	s := &domain.WeeklySchedule{StoreID: 1}
	assert.False(t, IsOpenAt(s, at(t, time.Sunday, "12:00:00")))
	assert.False(t, IsOpenAt(nil, at(t, time.Sunday, "12:00:00")))
}

func TestIsOpenAtPartialWindow(t *testing.T) {
	s := scheduleWith(time.Wednesday, "", "18:00:00")
	assert.False(t, IsOpenAt(s, at(t, time.Wednesday, "10:00:00")))

	s = scheduleWith(time.Wednesday, "08:00:00", "")
	assert.False(t, IsOpenAt(s, at(t, time.Wednesday, "10:00:00")))
}

func TestIsOpenAtMalformedDayOnlyClosesThatDay(t *testing.T) {
	s := scheduleWith(time.Thursday, "nine", "17:00:00")
	s.Days[time.Friday] = domain.DayWindow{Open: "09:00:00", Close: "17:00:00"}

	assert.False(t, IsOpenAt(s, at(t, time.Thursday, "12:00:00")))
	assert.True(t, IsOpenAt(s, at(t, time.Friday, "12:00:00")))
}

func TestIsOpenAtOvernightWindow(t *testing.T) {
	s := scheduleWith(time.Saturday, "22:00:00", "02:00:00")

	assert.True(t, IsOpenAt(s, at(t, time.Saturday, "23:00:00")))
	assert.True(t, IsOpenAt(s, at(t, time.Saturday, "22:00:00")))
	assert.True(t, IsOpenAt(s, at(t, time.Saturday, "23:59:59")))
	assert.True(t, IsOpenAt(s, at(t, time.Sunday, "00:00:00")))
	assert.True(t, IsOpenAt(s, at(t, time.Sunday, "01:30:00")))
	assert.True(t, IsOpenAt(s, at(t, time.Sunday, "02:00:00")))
	assert.False(t, IsOpenAt(s, at(t, time.Sunday, "02:00:01")))
	assert.False(t, IsOpenAt(s, at(t, time.Saturday, "21:59:59")))
	// 周六凌晨属于周五的时间段，周五没有设置
	assert.False(t, IsOpenAt(s, at(t, time.Saturday, "01:00:00")))
}

func TestIsOpenAtOpenEqualsClose(t *testing.T) {
	s := scheduleWith(time.Tuesday, "10:00:00", "10:00:00")
	assert.True(t, IsOpenAt(s, at(t, time.Tuesday, "10:00:00")))
	assert.False(t, IsOpenAt(s, at(t, time.Tuesday, "10:00:01")))
}

func TestIsOpenAtUsesInstantLocation(t *testing.T) {
	s := scheduleWith(time.Monday, "09:00:00", "17:00:00")
	shanghai := time.FixedZone("UTC+8", 8*3600)

	// 周一 UTC 02:00 在东八区是周一 10:00
	instant := time.Date(2024, time.January, 8, 2, 0, 0, 0, time.UTC)
	assert.False(t, IsOpenAt(s, instant))
	assert.True(t, IsOpenAt(s, instant.In(shanghai)))
}

func TestIsOpenAtIsIdempotent(t *testing.T) {
	s := scheduleWith(time.Monday, "09:00:00", "17:00:00")
	instant := at(t, time.Monday, "10:00:00")

	first := IsOpenAt(s, instant)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, IsOpenAt(s, instant))
	}
}

func TestEvaluate(t *testing.T) {
	s := scheduleWith(time.Monday, "09:00:00", "17:00:00")
	instant := at(t, time.Monday, "10:00:00")

	got := Evaluate(42, s, instant)
	assert.Equal(t, domain.StoreAvailability{StoreID: 42, IsOpen: true, AsOf: instant}, got)
}
