package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	conversationhandler "github.com/fluentlab/fluent-partner/internal/handler/conversation"
	"github.com/fluentlab/fluent-partner/internal/handler/shell"
	tutorhandler "github.com/fluentlab/fluent-partner/internal/handler/tutor"
	turnhandler "github.com/fluentlab/fluent-partner/internal/handler/turn"
	middlewarePkg "github.com/fluentlab/fluent-partner/internal/middleware"
	tutormodel "github.com/fluentlab/fluent-partner/internal/model/tutor"
	"github.com/fluentlab/fluent-partner/internal/pipeline"
	conversationservice "github.com/fluentlab/fluent-partner/internal/service/conversation"
	speechservice "github.com/fluentlab/fluent-partner/internal/service/speech"
	"github.com/fluentlab/fluent-partner/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(profile tutormodel.Profile, conversations *conversationservice.Service, pipe *pipeline.Pipeline, clips *speechservice.ClipStore, hub *shell.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	tutorHandler := tutorhandler.New(profile)
	conversationHandler := conversationhandler.New(conversations, pipe, profile)
	turnHandler := turnhandler.New(pipe, clips)
	wsHandler := shell.NewWebSocketHandler(pipe, conversations, clips, profile, hub)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		tutorHandler.RegisterRoutes(api)
		conversationHandler.RegisterRoutes(api)
		turnHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)
	})

	return r
}
