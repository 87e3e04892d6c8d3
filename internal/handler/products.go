package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/utils"
)

type productVariantRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	BasePrice   float64 `json:"basePrice" validate:"gte=0"`
	MarkupPrice float64 `json:"markupPrice" validate:"gte=0"`
	Image       string  `json:"image" validate:"omitempty,url"`
	Stock       int32   `json:"stock" validate:"gte=0"`
}

// 规格既可以通过 variants 提交，也可以通过几组按下标对应的数组提交，
// 数组支持 JSON、PostgreSQL 数组字面量和逗号分隔三种格式
type productVariantsRequest struct {
	Variants      []productVariantRequest `json:"variants" validate:"omitempty,dive"`
	VariantNames  string                  `json:"variantNames"`
	VariantPrices string                  `json:"variantPrices"`
	VariantImages string                  `json:"variantImages"`
	VariantStock  string                  `json:"variantStock"`
}

func (req *productVariantsRequest) provided() bool {
	return req.Variants != nil || req.VariantNames != ""
}

func (req *productVariantsRequest) toVariants() ([]domain.ProductVariant, error) {
	if req.Variants == nil {
		return utils.ParseVariantArrays(req.VariantNames, req.VariantPrices, req.VariantImages, req.VariantStock)
	}

	variants := make([]domain.ProductVariant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, domain.ProductVariant{
			Name:        v.Name,
			BasePrice:   utils.RoundPrice(v.BasePrice),
			MarkupPrice: utils.RoundPrice(v.MarkupPrice),
			Image:       v.Image,
			Stock:       v.Stock,
		})
	}
	return variants, nil
}

func (h *Handler) GetStoreProducts(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	products, err := h.repository.GetProductsByStoreID(store.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取商品列表成功", products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(ProductCtx).(*domain.Product)
	h.successResponse(w, r, "获取商品成功", product)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	var req struct {
		Name         string   `json:"name" validate:"required,max=100"`
		Description  string   `json:"description" validate:"max=2000"`
		Category     string   `json:"category" validate:"max=50"`
		BasePrice    *float64 `json:"basePrice" validate:"omitempty,gte=0"`
		Stock        int32    `json:"stock" validate:"gte=0"`
		Images       []string `json:"images" validate:"dive,url"`
		VariantLabel string   `json:"variantLabel" validate:"max=50"`
		productVariantsRequest
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	variants, err := req.toVariants()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	product := &domain.Product{
		StoreID:      store.ID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		BasePrice:    roundPricePtr(req.BasePrice),
		Stock:        req.Stock,
		Images:       nonNilStrings(req.Images),
		VariantLabel: req.VariantLabel,
		Variants:     variants,
	}

	if err := utils.ValidateProduct(product); err != nil {
		h.badRequest(w, r, err)
		return
	}
	utils.ApplyMarkup(product, h.config.Product.MarkupPercentage)

	if err := h.repository.CreateProduct(product); err != nil {
		h.productWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建商品成功", product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(ProductCtx).(*domain.Product)

	var req struct {
		Name         *string  `json:"name" validate:"omitempty,max=100"`
		Description  *string  `json:"description" validate:"omitempty,max=2000"`
		Category     *string  `json:"category" validate:"omitempty,max=50"`
		BasePrice    *float64 `json:"basePrice" validate:"omitempty,gte=0"`
		Stock        *int32   `json:"stock" validate:"omitempty,gte=0"`
		Images       []string `json:"images" validate:"omitempty,dive,url"`
		VariantLabel *string  `json:"variantLabel" validate:"omitempty,max=50"`
		productVariantsRequest
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	oldImages := productImages(product)

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.BasePrice != nil {
		product.BasePrice = roundPricePtr(req.BasePrice)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.VariantLabel != nil {
		product.VariantLabel = *req.VariantLabel
	}
	if req.provided() {
		variants, err := req.toVariants()
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		product.Variants = variants
	}

	if err := utils.ValidateProduct(product); err != nil {
		h.badRequest(w, r, err)
		return
	}
	utils.ApplyMarkup(product, h.config.Product.MarkupPercentage)

	if err := h.repository.UpdateProduct(product); err != nil {
		h.productWriteError(w, r, err)
		return
	}

	// 删除不再被引用的图片
	newImages := productImages(product)
	removed := make([]string, 0)
	for _, u := range oldImages {
		if !slices.Contains(newImages, u) {
			removed = append(removed, u)
		}
	}
	h.deleteObjects(removed)

	h.successResponse(w, r, "更新商品成功", product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(ProductCtx).(*domain.Product)

	objectURLs, err := h.repository.DeleteProduct(product.StoreID, product.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "商品不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.deleteObjects(objectURLs)

	h.successResponse(w, r, "删除商品成功", nil)
}

func (h *Handler) productWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "products_store_id_name_key":
			h.errorResponse(w, r, "店铺中已存在同名商品")
		case "products_stock_check":
			h.errorResponse(w, r, "商品库存不能为负数")
		default:
			h.internalServerError(w, r, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "商品信息已被修改，请重试")
	default:
		h.internalServerError(w, r, err)
	}
}

func productImages(p *domain.Product) []string {
	images := append([]string{}, p.Images...)
	for _, v := range p.Variants {
		if v.Image != "" {
			images = append(images, v.Image)
		}
	}
	return images
}

func roundPricePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := utils.RoundPrice(*p)
	return &v
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
