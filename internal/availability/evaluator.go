// Package availability 根据店铺的每周营业时间计算某一时刻店铺是否营业。
//
// 这里的函数都是纯函数，不做任何 I/O，可以在任意数量的 goroutine 中并发调用。
package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

var ErrMalformedTime = errors.New("时间格式错误")

// TimeOfDay 一天中的时刻，单位为秒（从 00:00:00 开始计算）
type TimeOfDay int32

const endOfDay TimeOfDay = 24*60*60 - 1

var timeLayouts = []string{"15:04:05", "15:04"}

// ParseTimeOfDay 解析 HH:MM:SS 或 HH:MM 格式的时间，小于秒的部分会被忽略
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
}

// ClockOf 返回 t 在其自身时区下的时刻
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t/3600, t%3600/60, t%60)
}

type window struct {
	open  TimeOfDay
	close TimeOfDay
}

// overnight 表示营业时间跨过了午夜，例如 22:00 - 02:00
func (w window) overnight() bool {
	return w.close < w.open
}

// parseWindow 只有开门和关门时间都存在并且都能解析时才返回 true
func parseWindow(dw domain.DayWindow) (window, bool) {
	if !dw.IsSet() {
		return window{}, false
	}
	open, err := ParseTimeOfDay(dw.Open)
	if err != nil {
		return window{}, false
	}
	closeAt, err := ParseTimeOfDay(dw.Close)
	if err != nil {
		return window{}, false
	}
	return window{open: open, close: closeAt}, true
}

// IsOpenAt 判断店铺在 instant 时是否营业，星期和时刻都按照 instant 自身的时区计算。
//
// 当天的时间段两端都是闭区间。如果关门时间早于开门时间，则认为营业到第二天的关门时间，
// 因此还需要检查前一天是否有跨午夜的时间段。
func IsOpenAt(schedule *domain.WeeklySchedule, instant time.Time) bool {
	if schedule == nil {
		return false
	}

	day := instant.Weekday()
	now := ClockOf(instant)

	if w, ok := parseWindow(schedule.Day(day)); ok {
		if w.overnight() {
			if now >= w.open && now <= endOfDay {
				return true
			}
		} else if now >= w.open && now <= w.close {
			return true
		}
	}

	yesterday := (day + 6) % 7
	if w, ok := parseWindow(schedule.Day(yesterday)); ok && w.overnight() && now <= w.close {
		return true
	}

	return false
}

func Evaluate(storeID int64, schedule *domain.WeeklySchedule, instant time.Time) domain.StoreAvailability {
	return domain.StoreAvailability{
		StoreID: storeID,
		IsOpen:  IsOpenAt(schedule, instant),
		AsOf:    instant,
	}
}
