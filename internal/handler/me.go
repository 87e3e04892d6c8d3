package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取个人信息成功", myInfo)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.repository.Ping(r.Context()); err != nil {
		h.logInternalServerError(r, err)
		h.writeJSON(w, r, http.StatusServiceUnavailable, Response{
			Success: false,
			Message: "数据库不可用",
			Data:    nil,
		})
		return
	}

	h.successResponse(w, r, "服务正常", nil)
}
