package tutor

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	tutormodel "github.com/fluentlab/fluent-partner/internal/model/tutor"
	"github.com/fluentlab/fluent-partner/pkg/utils"
)

// Handler exposes the tutor profile so the shell can render the persona and
// its opening line before the first turn.
type Handler struct {
	profile tutormodel.Profile
}

// New 创建tutor处理器
func New(profile tutormodel.Profile) *Handler {
	return &Handler{profile: profile}
}

// RegisterRoutes 注册tutor相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tutor", h.handleProfile)
}

func (h *Handler) handleProfile(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profile)
}
