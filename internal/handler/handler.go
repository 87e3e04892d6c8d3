package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/config"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/notify"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/repository"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/storage"
)

type scheduleReader interface {
	GetSchedule(ctx context.Context, storeID int64) (*domain.WeeklySchedule, error)
}

type storeCreator interface {
	CreateStore(store *domain.Store, schedule *domain.WeeklySchedule) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	schedules  scheduleReader
	stores     storeCreator
	translator ut.Translator
	publisher  *notify.Publisher
	storage    *storage.Storage
	location   *time.Location

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, publisher *notify.Publisher, store *storage.Storage) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		schedules:  repo,
		stores:     repo,
		translator: trans,
		publisher:  publisher,
		storage:    store,
		location:   loc,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/health", h.Health)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)
		r.Get("/my-info", h.GetMyInfo)
		r.With(h.RequiredRole([]domain.Role{domain.RolePlatformAdmin})).Get("/users", h.GetAllUserInfo)
	})

	// 店铺管理员才能调用的 API 需要依次经过这三个中间件
	storeAdminOnly := []func(http.Handler) http.Handler{h.auth, h.myInfo, h.storeAdmin}

	h.Mux.Route("/stores", func(r chi.Router) {
		r.Get("/", h.GetAllStores)
		r.With(h.auth, h.myInfo).Post("/", h.CreateStore)
		r.With(h.auth, h.myInfo).Get("/mine", h.GetMyStores)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.store)
			r.Get("/", h.GetStoreFront)
			r.Get("/availability", h.GetStoreAvailability)
			r.Get("/schedule", h.GetSchedule)

			r.With(storeAdminOnly...).Patch("/", h.UpdateStore)
			r.With(storeAdminOnly...).Delete("/", h.DeleteStore)
			r.With(storeAdminOnly...).Put("/schedule", h.UpdateSchedule)
			r.With(storeAdminOnly...).Post("/images", h.UploadStoreImage)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.GetStoreProducts)
				r.With(storeAdminOnly...).Post("/", h.CreateProduct)
				r.Route("/{productID}", func(r chi.Router) {
					r.Use(h.product)
					r.Get("/", h.GetProduct)
					r.With(storeAdminOnly...).Patch("/", h.UpdateProduct)
					r.With(storeAdminOnly...).Delete("/", h.DeleteProduct)
				})
			})

			r.Route("/delivery", func(r chi.Router) {
				r.Use(storeAdminOnly...)
				r.Post("/", h.CreateDeliveryLocation)
				r.Put("/{locationID}", h.UpdateDeliveryLocation)
				r.Delete("/{locationID}", h.DeleteDeliveryLocation)
			})

			r.Route("/dropoff", func(r chi.Router) {
				r.Use(storeAdminOnly...)
				r.Post("/", h.CreateDropoffLocation)
				r.Put("/{locationID}", h.UpdateDropoffLocation)
				r.Delete("/{locationID}", h.DeleteDropoffLocation)
			})
		})
	})

	h.Mux.Get("/delivery-locations", h.GetDeliveryLocations)
	h.Mux.Get("/dropoff-locations", h.GetDropoffLocations)
}

// now 返回用于计算营业状态的当前时间
func (h *Handler) now() time.Time {
	return time.Now().In(h.location).Truncate(time.Second)
}
