package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/availability"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

var weekdayNames = [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

func WeekdayName(day time.Weekday) string {
	return weekdayNames[int(day)%7]
}

// ValidateWeeklySchedule 检查每天的营业时间是否能被解析。
// 关门时间早于开门时间是允许的，表示营业到第二天。
func ValidateWeeklySchedule(s *domain.WeeklySchedule) error {
	for i, dw := range s.Days {
		day := time.Weekday(i)

		if dw.Open == "" && dw.Close == "" {
			continue
		}
		if dw.Open == "" || dw.Close == "" {
			return fmt.Errorf("%s的开门时间和关门时间必须同时填写", WeekdayName(day))
		}
		if _, err := availability.ParseTimeOfDay(dw.Open); err != nil {
			return fmt.Errorf("%s的开门时间格式错误", WeekdayName(day))
		}
		if _, err := availability.ParseTimeOfDay(dw.Close); err != nil {
			return fmt.Errorf("%s的关门时间格式错误", WeekdayName(day))
		}
	}

	return nil
}

// NormalizeWeeklySchedule 将所有时间统一为 HH:MM:SS，调用前需要先通过 ValidateWeeklySchedule
func NormalizeWeeklySchedule(s *domain.WeeklySchedule) {
	for i, dw := range s.Days {
		if !dw.IsSet() {
			s.Days[i] = domain.DayWindow{}
			continue
		}
		open, _ := availability.ParseTimeOfDay(dw.Open)
		closeAt, _ := availability.ParseTimeOfDay(dw.Close)
		s.Days[i] = domain.DayWindow{Open: open.String(), Close: closeAt.String()}
	}
}

func ValidateProduct(p *domain.Product) error {
	if p.BasePrice != nil && *p.BasePrice < 0 {
		return errors.New("商品价格不能为负数")
	}
	if p.Stock < 0 {
		return errors.New("商品库存不能为负数")
	}

	seen := make(map[string]bool)
	for i, v := range p.Variants {
		if v.Name == "" {
			return fmt.Errorf("第 %d 个规格的名称不能为空", i+1)
		}
		if seen[v.Name] {
			return fmt.Errorf("规格 %s 重复", v.Name)
		}
		seen[v.Name] = true

		if v.BasePrice < 0 || v.MarkupPrice < 0 {
			return fmt.Errorf("规格 %s 的价格不能为负数", v.Name)
		}
		if v.Stock < 0 {
			return fmt.Errorf("规格 %s 的库存不能为负数", v.Name)
		}
	}

	return nil
}

// ApplyMarkup 计算商品和各规格加价后的价格，已经填写了加价价格的规格保持不变
func ApplyMarkup(p *domain.Product, percentage float64) {
	p.MarkupPercentage = percentage

	if p.BasePrice != nil {
		markup := MarkupPrice(*p.BasePrice, percentage)
		p.MarkupPrice = &markup
	} else {
		p.MarkupPrice = nil
	}

	for i := range p.Variants {
		if p.Variants[i].MarkupPrice == 0 {
			p.Variants[i].MarkupPrice = MarkupPrice(p.Variants[i].BasePrice, percentage)
		}
	}
}
