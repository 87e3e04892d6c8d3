package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

func TestValidateWeeklySchedule(t *testing.T) {
	s := &domain.WeeklySchedule{}
	s.Days[time.Monday] = domain.DayWindow{Open: "09:00", Close: "17:00:00"}
	s.Days[time.Saturday] = domain.DayWindow{Open: "22:00", Close: "02:00"}
	require.NoError(t, ValidateWeeklySchedule(s))

	s.Days[time.Wednesday] = domain.DayWindow{Close: "18:00"}
	assert.EqualError(t, ValidateWeeklySchedule(s), "周三的开门时间和关门时间必须同时填写")

	s.Days[time.Wednesday] = domain.DayWindow{Open: "8 o'clock", Close: "18:00"}
	assert.EqualError(t, ValidateWeeklySchedule(s), "周三的开门时间格式错误")

	s.Days[time.Wednesday] = domain.DayWindow{Open: "08:00", Close: "24:30"}
	assert.EqualError(t, ValidateWeeklySchedule(s), "周三的关门时间格式错误")
}

func TestNormalizeWeeklySchedule(t *testing.T) {
	s := &domain.WeeklySchedule{}
	s.Days[time.Monday] = domain.DayWindow{Open: "9:00", Close: "17:30"}
	s.Days[time.Tuesday] = domain.DayWindow{Open: "09:00"}

	NormalizeWeeklySchedule(s)

	assert.Equal(t, domain.DayWindow{Open: "09:00:00", Close: "17:30:00"}, s.Days[time.Monday])
	assert.Equal(t, domain.DayWindow{}, s.Days[time.Tuesday])
}

func TestValidateProduct(t *testing.T) {
	price := 100.0
	p := &domain.Product{
		Name:      "T-shirt",
		BasePrice: &price,
		Variants: []domain.ProductVariant{
			{Name: "S", BasePrice: 90, Stock: 3},
			{Name: "M", BasePrice: 100, Stock: 0},
		},
	}
	require.NoError(t, ValidateProduct(p))

	p.Variants = append(p.Variants, domain.ProductVariant{Name: "S"})
	assert.EqualError(t, ValidateProduct(p), "规格 S 重复")

	p.Variants[2] = domain.ProductVariant{Name: "L", Stock: -1}
	assert.EqualError(t, ValidateProduct(p), "规格 L 的库存不能为负数")

	p.Variants[2] = domain.ProductVariant{}
	assert.EqualError(t, ValidateProduct(p), "第 3 个规格的名称不能为空")

	negative := -1.0
	p.BasePrice = &negative
	assert.EqualError(t, ValidateProduct(p), "商品价格不能为负数")
}

func TestApplyMarkup(t *testing.T) {
	price := 50.0
	p := &domain.Product{
		BasePrice: &price,
		Variants: []domain.ProductVariant{
			{Name: "S", BasePrice: 40},
			{Name: "M", BasePrice: 50, MarkupPrice: 60},
		},
	}

	ApplyMarkup(p, 10)

	require.NotNil(t, p.MarkupPrice)
	assert.Equal(t, 55.0, *p.MarkupPrice)
	assert.Equal(t, 10.0, p.MarkupPercentage)
	assert.Equal(t, 44.0, p.Variants[0].MarkupPrice)
	assert.Equal(t, 60.0, p.Variants[1].MarkupPrice)

	p.BasePrice = nil
	ApplyMarkup(p, 10)
	assert.Nil(t, p.MarkupPrice)
}
