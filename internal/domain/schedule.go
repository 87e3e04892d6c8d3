package domain

import (
	"time"
)

// DayWindow 某一天的营业时间段，时间格式为 HH:MM:SS
// Open 和 Close 只要有一个为空，就表示当天不营业
type DayWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

func (w DayWindow) IsSet() bool {
	return w.Open != "" && w.Close != ""
}

type WeeklySchedule struct {
	StoreID   int64        `json:"storeID"`
	Days      [7]DayWindow `json:"days"` // 下标与 time.Weekday 一致，0 表示周日
	UpdatedAt time.Time    `json:"updatedAt"`
	Version   int32        `json:"-"`
}

func (s *WeeklySchedule) Day(day time.Weekday) DayWindow {
	return s.Days[int(day)%7]
}

// StoreAvailability 根据营业时间计算出来的店铺营业状态，只是一个快照
type StoreAvailability struct {
	StoreID int64     `json:"storeID"`
	IsOpen  bool      `json:"isOpen"`
	AsOf    time.Time `json:"asOf"`
}
