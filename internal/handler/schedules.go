package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/availability"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/utils"
)

type dayWindowRequest struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Days 的下标与 time.Weekday 一致，0 表示周日
type scheduleRequest struct {
	Days []dayWindowRequest `json:"days" validate:"len=7"`
}

func (req *scheduleRequest) toWeeklySchedule(storeID int64) (*domain.WeeklySchedule, error) {
	s := &domain.WeeklySchedule{StoreID: storeID}
	for i, d := range req.Days {
		if i >= len(s.Days) {
			break
		}
		s.Days[i] = domain.DayWindow{Open: d.Open, Close: d.Close}
	}

	if err := utils.ValidateWeeklySchedule(s); err != nil {
		return nil, err
	}
	utils.NormalizeWeeklySchedule(s)

	return s, nil
}

type availabilityResponse struct {
	domain.StoreAvailability
	CachedIsOpen    bool       `json:"cachedIsOpen"`
	StatusUpdatedAt *time.Time `json:"statusUpdatedAt"`
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	schedule, err := h.schedules.GetSchedule(r.Context(), store.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if schedule == nil {
		// 没有设置营业时间的店铺返回全部为空的营业时间
		schedule = &domain.WeeklySchedule{StoreID: store.ID}
	}

	h.successResponse(w, r, "获取营业时间成功", schedule)
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	var req scheduleRequest
	if !h.readAndValidate(w, r, &req) {
		return
	}

	schedule, err := req.toWeeklySchedule(store.ID)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpsertSchedule(schedule); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.syncStoreStatus(r.Context(), store.ID, schedule)

	h.successResponse(w, r, "更新营业时间成功", schedule)
}

func (h *Handler) GetStoreAvailability(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	_, a := h.liveAvailability(r.Context(), store)

	h.successResponse(w, r, "获取营业状态成功", availabilityResponse{
		StoreAvailability: a,
		CachedIsOpen:      store.IsOpen,
		StatusUpdatedAt:   store.StatusUpdatedAt,
	})
}

// liveAvailability 根据营业时间实时计算营业状态。
// 读取营业时间失败时不影响页面展示，退回到缓存的营业状态。
func (h *Handler) liveAvailability(ctx context.Context, store *domain.Store) (*domain.WeeklySchedule, domain.StoreAvailability) {
	now := h.now()

	schedule, err := h.schedules.GetSchedule(ctx, store.ID)
	if err != nil {
		slog.Warn("无法读取营业时间，使用缓存的营业状态", slog.Int64("store_id", store.ID), "error", err)

		asOf := now
		if store.StatusUpdatedAt != nil {
			asOf = *store.StatusUpdatedAt
		}
		return nil, domain.StoreAvailability{StoreID: store.ID, IsOpen: store.IsOpen, AsOf: asOf}
	}

	return schedule, availability.Evaluate(store.ID, schedule, now)
}

// syncStoreStatus 修改营业时间后立即刷新缓存的营业状态，不必等待下一轮定时刷新
func (h *Handler) syncStoreStatus(ctx context.Context, storeID int64, schedule *domain.WeeklySchedule) {
	a := availability.Evaluate(storeID, schedule, h.now())
	if _, err := h.repository.SetStoreOpen(ctx, storeID, a.IsOpen, a.AsOf); err != nil {
		slog.Warn("无法立即刷新店铺营业状态", slog.Int64("store_id", storeID), "error", err)
	}
}
