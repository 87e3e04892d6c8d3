package utils

import (
	"errors"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

var ErrVariantLengthMismatch = errors.New("规格名称、价格、图片和库存的数量必须一致")

// ParseVariantArrays 将按下标对应的几组数组合并为规格列表，每组数组都可以是 ParseFlexibleArray 支持的任意格式。
// 价格、图片、库存为空时表示不填写，否则长度必须与名称一致。
func ParseVariantArrays(names, prices, images, stocks string) ([]domain.ProductVariant, error) {
	nameList := ParseFlexibleArray(names)
	priceList := ParseFlexibleNumberArray(prices)
	imageList := ParseAlignedArray(images)
	stockList := ParseFlexibleNumberArray(stocks)

	for _, n := range []int{len(priceList), len(imageList), len(stockList)} {
		if n != 0 && n != len(nameList) {
			return nil, ErrVariantLengthMismatch
		}
	}

	variants := make([]domain.ProductVariant, 0, len(nameList))
	for i, name := range nameList {
		v := domain.ProductVariant{Name: name}
		if len(priceList) > 0 {
			v.BasePrice = RoundPrice(priceList[i])
		}
		if len(imageList) > 0 {
			v.Image = imageList[i]
		}
		if len(stockList) > 0 {
			v.Stock = int32(stockList[i])
		}
		variants = append(variants, v)
	}

	return variants, nil
}
