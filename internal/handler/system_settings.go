package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lottoledger/internal/service"
)

type SystemSettingsHandler struct {
	Settings *service.SystemSettingsService
	// Operator guards the group; nil leaves it open.
	Operator gin.HandlerFunc
}

func (h *SystemSettingsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/system-settings", guarded(h.Operator)...)
	g.GET("/switches", h.listSwitches)
	g.PUT("/switches/:name", h.putSwitch)
}

// @Summary List job switches
// @Tags system-settings
// @Success 200 {object} apiResponse
// @Router /api/system-settings/switches [get]
func (h *SystemSettingsHandler) listSwitches(c *gin.Context) {
	items, err := h.Settings.List(c.Request.Context(), "job.")
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	out := make(map[string]bool, len(items))
	for key := range service.DefaultJobSwitches() {
		out[key] = h.Settings.IsEnabled(c.Request.Context(), key, true)
	}
	for _, item := range items {
		out[item.Key] = h.Settings.IsEnabled(c.Request.Context(), item.Key, false)
	}
	Ok(c, out, nil)
}

type putSwitchRequest struct {
	Enabled *bool `json:"enabled"`
}

// @Summary Turn a job switch on or off
// @Tags system-settings
// @Param name path string true "job.shift|job.archive|job.clear_results"
// @Param body body putSwitchRequest true "enabled"
// @Success 200 {object} apiResponse
// @Router /api/system-settings/switches/{name} [put]
func (h *SystemSettingsHandler) putSwitch(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if _, ok := service.DefaultJobSwitches()[name]; !ok {
		Error(c, http.StatusBadRequest, "unknown switch", nil)
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Settings.SetEnabled(c.Request.Context(), name, *req.Enabled); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"name": name, "enabled": *req.Enabled}, nil)
}
