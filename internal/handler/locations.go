package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

type deliveryLocationRequest struct {
	Province      string  `json:"province" validate:"required,max=50"`
	City          string  `json:"city" validate:"required,max=50"`
	Suburb        string  `json:"suburb" validate:"max=50"`
	PostalCode    string  `json:"postalCode" validate:"max=20"`
	Price         float64 `json:"price" validate:"gte=0"`
	EstimatedTime string  `json:"estimatedTime" validate:"max=50"`
}

type dropoffLocationRequest struct {
	Province      string  `json:"province" validate:"required,max=50"`
	City          string  `json:"city" validate:"required,max=50"`
	Suburb        string  `json:"suburb" validate:"max=50"`
	PostalCode    string  `json:"postalCode" validate:"max=20"`
	StreetAddress string  `json:"streetAddress" validate:"required,max=200"`
	Price         float64 `json:"price" validate:"gte=0"`
	Notes         string  `json:"notes" validate:"max=500"`
}

func (req *deliveryLocationRequest) toDomain(storeID int64) *domain.DeliveryLocation {
	return &domain.DeliveryLocation{
		StoreID:       storeID,
		Province:      req.Province,
		City:          req.City,
		Suburb:        req.Suburb,
		PostalCode:    req.PostalCode,
		Price:         req.Price,
		EstimatedTime: req.EstimatedTime,
	}
}

func (req *dropoffLocationRequest) toDomain(storeID int64) *domain.DropoffLocation {
	return &domain.DropoffLocation{
		StoreID:       storeID,
		Province:      req.Province,
		City:          req.City,
		Suburb:        req.Suburb,
		PostalCode:    req.PostalCode,
		StreetAddress: req.StreetAddress,
		Price:         req.Price,
		Notes:         req.Notes,
	}
}

// storeIDQuery 解析可选的 ?store_id= 参数
func storeIDQuery(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("store_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New("店铺ID无效")
	}
	return &id, nil
}

func (h *Handler) GetDeliveryLocations(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeIDQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	locations, err := h.repository.GetDeliveryLocations(storeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取配送地点成功", locations)
}

func (h *Handler) CreateDeliveryLocation(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	var req deliveryLocationRequest
	if !h.readAndValidate(w, r, &req) {
		return
	}

	location := req.toDomain(store.ID)
	if err := h.repository.CreateDeliveryLocation(location); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "添加配送地点成功", location)
}

func (h *Handler) UpdateDeliveryLocation(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	locationID, err := h.int64Param(r, "locationID")
	if err != nil {
		h.errorResponse(w, r, "配送地点ID无效")
		return
	}

	var req deliveryLocationRequest
	if !h.readAndValidate(w, r, &req) {
		return
	}

	location := req.toDomain(store.ID)
	location.ID = locationID
	if err := h.repository.UpdateDeliveryLocation(location); err != nil {
		h.locationWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新配送地点成功", location)
}

func (h *Handler) DeleteDeliveryLocation(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	locationID, err := h.int64Param(r, "locationID")
	if err != nil {
		h.errorResponse(w, r, "配送地点ID无效")
		return
	}

	if err := h.repository.DeleteDeliveryLocation(store.ID, locationID); err != nil {
		h.locationWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除配送地点成功", nil)
}

func (h *Handler) GetDropoffLocations(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeIDQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	locations, err := h.repository.GetDropoffLocations(storeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取自提地点成功", locations)
}

func (h *Handler) CreateDropoffLocation(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	var req dropoffLocationRequest
	if !h.readAndValidate(w, r, &req) {
		return
	}

	location := req.toDomain(store.ID)
	if err := h.repository.CreateDropoffLocation(location); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "添加自提地点成功", location)
}

func (h *Handler) UpdateDropoffLocation(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	locationID, err := h.int64Param(r, "locationID")
	if err != nil {
		h.errorResponse(w, r, "自提地点ID无效")
		return
	}

	var req dropoffLocationRequest
	if !h.readAndValidate(w, r, &req) {
		return
	}

	location := req.toDomain(store.ID)
	location.ID = locationID
	if err := h.repository.UpdateDropoffLocation(location); err != nil {
		h.locationWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新自提地点成功", location)
}

func (h *Handler) DeleteDropoffLocation(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	locationID, err := h.int64Param(r, "locationID")
	if err != nil {
		h.errorResponse(w, r, "自提地点ID无效")
		return
	}

	if err := h.repository.DeleteDropoffLocation(store.ID, locationID); err != nil {
		h.locationWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除自提地点成功", nil)
}

func (h *Handler) locationWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "地点不存在")
	default:
		h.internalServerError(w, r, err)
	}
}
