package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/availability"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/storage"
)

const objectOperationTimeout = 30 * time.Second

func (h *Handler) GetAllStores(w http.ResponseWriter, r *http.Request) {
	// 列表页使用定时任务写入的缓存状态
	stores, err := h.repository.GetAllStores()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取店铺列表成功", stores)
}

func (h *Handler) GetMyStores(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	stores, err := h.repository.GetStoresByAdminEmail(myInfo.Email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取我管理的店铺成功", stores)
}

func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		StoreName       string           `json:"storeName" validate:"required,max=100"`
		StoreOwner      string           `json:"storeOwner" validate:"required,max=100"`
		CellNumber      string           `json:"cellNumber" validate:"required,max=30"`
		SecondaryNumber string           `json:"secondaryNumber" validate:"max=30"`
		Email           string           `json:"email" validate:"required,email"`
		Country         string           `json:"country"`
		Street          string           `json:"street"`
		Suburb          string           `json:"suburb"`
		Province        string           `json:"province"`
		City            string           `json:"city"`
		PostalCode      string           `json:"postalCode"`
		Description     string           `json:"description" validate:"max=2000"`
		BankName        string           `json:"bankName"`
		BranchCode      string           `json:"branchCode"`
		AccountHolder   string           `json:"accountHolder"`
		AccountNumber   string           `json:"accountNumber"`
		AccountType     string           `json:"accountType"`
		Admins          []string         `json:"admins" validate:"dive,email"`
		Schedule        *scheduleRequest `json:"schedule"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	var schedule *domain.WeeklySchedule // 为 nil 时店铺始终不营业
	if req.Schedule != nil {
		s, err := req.Schedule.toWeeklySchedule(0)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		schedule = s
	}

	store := &domain.Store{
		StoreName:       req.StoreName,
		StoreOwner:      req.StoreOwner,
		CellNumber:      req.CellNumber,
		SecondaryNumber: req.SecondaryNumber,
		Email:           req.Email,
		Country:         req.Country,
		Street:          req.Street,
		Suburb:          req.Suburb,
		Province:        req.Province,
		City:            req.City,
		PostalCode:      req.PostalCode,
		Description:     req.Description,
		BankName:        req.BankName,
		BranchCode:      req.BranchCode,
		AccountHolder:   req.AccountHolder,
		AccountNumber:   req.AccountNumber,
		AccountType:     req.AccountType,
		// 创建者是第一个管理员
		Admins: append([]string{myInfo.Email}, req.Admins...),
	}

	// 初始的缓存状态与店铺、营业时间在同一个事务中写入
	a := availability.Evaluate(0, schedule, h.now())
	store.IsOpen = a.IsOpen
	store.StatusUpdatedAt = &a.AsOf

	if err := h.stores.CreateStore(store, schedule); err != nil {
		h.storeWriteError(w, r, err)
		return
	}

	if err := h.publisher.StoreCreated(r.Context(), store, myInfo); err != nil {
		// 店铺已经创建成功，邮件发送失败不影响响应
		slog.Warn("无法发送店铺创建邮件", slog.Int64("store_id", store.ID), "error", err)
	}

	h.successResponse(w, r, "创建店铺成功", store)
}

func (h *Handler) GetStoreFront(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	// 店铺主页实时计算营业状态，不依赖缓存
	schedule, a := h.liveAvailability(r.Context(), store)

	h.successResponse(w, r, "获取店铺信息成功", domain.StoreFront{
		Store:     *store,
		Schedule:  schedule,
		IsOpenNow: a.IsOpen,
	})
}

func (h *Handler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	var req struct {
		StoreName       *string  `json:"storeName" validate:"omitempty,max=100"`
		StoreOwner      *string  `json:"storeOwner" validate:"omitempty,max=100"`
		CellNumber      *string  `json:"cellNumber" validate:"omitempty,max=30"`
		SecondaryNumber *string  `json:"secondaryNumber" validate:"omitempty,max=30"`
		Email           *string  `json:"email" validate:"omitempty,email"`
		Country         *string  `json:"country"`
		Street          *string  `json:"street"`
		Suburb          *string  `json:"suburb"`
		Province        *string  `json:"province"`
		City            *string  `json:"city"`
		PostalCode      *string  `json:"postalCode"`
		Description     *string  `json:"description" validate:"omitempty,max=2000"`
		BankName        *string  `json:"bankName"`
		BranchCode      *string  `json:"branchCode"`
		AccountHolder   *string  `json:"accountHolder"`
		AccountNumber   *string  `json:"accountNumber"`
		AccountType     *string  `json:"accountType"`
		Admins          []string `json:"admins" validate:"omitempty,min=1,dive,email"`
	}

	if !h.readAndValidate(w, r, &req) {
		return
	}

	fields := []struct {
		src *string
		dst *string
	}{
		{req.StoreName, &store.StoreName},
		{req.StoreOwner, &store.StoreOwner},
		{req.CellNumber, &store.CellNumber},
		{req.SecondaryNumber, &store.SecondaryNumber},
		{req.Email, &store.Email},
		{req.Country, &store.Country},
		{req.Street, &store.Street},
		{req.Suburb, &store.Suburb},
		{req.Province, &store.Province},
		{req.City, &store.City},
		{req.PostalCode, &store.PostalCode},
		{req.Description, &store.Description},
		{req.BankName, &store.BankName},
		{req.BranchCode, &store.BranchCode},
		{req.AccountHolder, &store.AccountHolder},
		{req.AccountNumber, &store.AccountNumber},
		{req.AccountType, &store.AccountType},
	}
	for _, f := range fields {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if req.Admins != nil {
		store.Admins = req.Admins
	}

	if err := h.repository.UpdateStore(store); err != nil {
		h.storeWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新店铺信息成功", store)
}

func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	objectURLs, err := h.repository.DeleteStore(store.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "店铺不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.deleteObjects(objectURLs)

	h.successResponse(w, r, "删除店铺成功", nil)
}

func (h *Handler) UploadStoreImage(w http.ResponseWriter, r *http.Request) {
	store := r.Context().Value(StoreCtx).(*domain.Store)

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.Server.MaxUploadSize); err != nil {
		h.errorResponse(w, r, "文件过大或格式错误")
		return
	}

	kind, ok := storage.ParseKind(r.FormValue("kind"))
	if !ok {
		h.errorResponse(w, r, "图片类型必须为 banner、logo 或 product")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorResponse(w, r, "请选择要上传的文件")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), objectOperationTimeout)
	defer cancel()

	url, err := h.storage.Upload(ctx, store.ID, kind, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotImage):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 商品图片由客户端在创建或更新商品时一并提交
	var oldURL string
	switch kind {
	case storage.KindBanner:
		oldURL, store.BannerURL = store.BannerURL, url
	case storage.KindLogo:
		oldURL, store.LogoURL = store.LogoURL, url
	}

	if kind != storage.KindProduct {
		if err := h.repository.UpdateStore(store); err != nil {
			h.deleteObjects([]string{url})
			h.storeWriteError(w, r, err)
			return
		}
		if oldURL != "" {
			h.deleteObjects([]string{oldURL})
		}
	}

	h.successResponse(w, r, "上传图片成功", map[string]string{"url": url})
}

func (h *Handler) storeWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "stores_store_name_key":
			h.errorResponse(w, r, "店铺名称已存在")
		default:
			h.internalServerError(w, r, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "店铺信息已被修改，请重试")
	default:
		h.internalServerError(w, r, err)
	}
}

// deleteObjects 数据库中的记录已经删除，对象存储中的文件删除失败只记录日志
func (h *Handler) deleteObjects(urls []string) {
	if len(urls) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), objectOperationTimeout)
	defer cancel()

	if err := h.storage.DeleteAll(ctx, urls); err != nil {
		slog.Warn("无法删除对象存储中的文件", "error", err)
	}
}
