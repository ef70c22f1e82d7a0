package router

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"

	"github.com/mvik/battwatch/internal/pkg/application"
)

type Router interface {
	Start(port string) error
}

type routerStruct struct {
	router chi.Router
	log    zerolog.Logger
	status func() application.Status
}

func SetupRouter(chiRouter chi.Router, log zerolog.Logger, status func() application.Status) *routerStruct {
	r := &routerStruct{
		router: chiRouter,
		log:    log,
		status: status,
	}

	chiRouter.Use(middleware.Logger)
	chiRouter.Get("/health", r.health)
	chiRouter.Get("/status", r.cycleStatus)

	return r
}

func (r *routerStruct) Start(port string) error {
	r.log.Info().Str("port", port).Msg("starting to listen for connections")
	return http.ListenAndServe(fmt.Sprintf(":%s", port), r.router)
}

func (router *routerStruct) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (router *routerStruct) cycleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(router.status()); err != nil {
		router.log.Error().Err(err).Msg("failed to encode status response")
	}
}
