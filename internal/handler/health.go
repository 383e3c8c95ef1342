package handler

import (
	"net/http"

	"github.com/rentiva/veriprop/internal/response"
	"github.com/rentiva/veriprop/internal/version"
)

type HealthHandler struct {
	RouteHandler
}

func NewHealthHandler(handler *HealthHandler) *HealthHandler {
	return &HealthHandler{
		RouteHandler: handler.RouteHandler,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "Up and grateful",
		"version": version.Get(),
	}

	message := "Service is healthy"
	err := response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
