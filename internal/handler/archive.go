package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lottoledger/internal/ledger"
	"lottoledger/internal/service"
)

type ArchiveHandler struct {
	Archive *service.ArchiveService
	Logger  *zap.Logger
	// SkipIdentity lets any caller read any user's history (auth disabled).
	SkipIdentity bool
	// Operator guards /api/archive; history stays with its owner.
	Operator gin.HandlerFunc
}

func (h *ArchiveHandler) Register(r *gin.Engine) {
	g := r.Group("/api/archive", guarded(h.Operator)...)
	g.POST("/:kind", h.migrate)
	g.GET("/:kind/:date", h.partition)
	r.GET("/api/users/:uid/history", h.history)
}

type migrateBody struct {
	ArchiveDate string `json:"archive_date"`
}

// @Summary Archive one kind (or all) into a business-date partition
// @Tags archive
// @Param kind path string true "bets|withdrawals|gateway_deposits|manual_deposits|manual_withdrawals|all"
// @Param body body migrateBody false "archive date (DD-MM-YYYY)"
// @Success 200 {object} apiResponse
// @Failure 500 {object} apiResponse
// @Router /api/archive/{kind} [post]
func (h *ArchiveHandler) migrate(c *gin.Context) {
	var body migrateBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			Fail(c, h.Logger, ledger.Invalid("invalid body: %v", err), nil)
			return
		}
	}
	if body.ArchiveDate == "" {
		body.ArchiveDate = c.Query("date")
	}
	kind := c.Param("kind")
	if kind == "all" {
		reps, err := h.Archive.MigrateAll(c.Request.Context(), body.ArchiveDate)
		if err != nil {
			Fail(c, h.Logger, err, reps)
			return
		}
		Ok(c, reps, nil)
		return
	}
	rep, err := h.Archive.Migrate(c.Request.Context(), service.MigrateRequest{Kind: kind, ArchiveDate: body.ArchiveDate})
	if err != nil {
		Fail(c, h.Logger, err, rep)
		return
	}
	Ok(c, rep, nil)
}

// @Summary Archive partition summary
// @Tags archive
// @Param kind path string true "archive kind"
// @Param date path string true "DD-MM-YYYY"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/archive/{kind}/{date} [get]
func (h *ArchiveHandler) partition(c *gin.Context) {
	p, err := h.Archive.Partition(c.Request.Context(), c.Param("kind"), c.Param("date"))
	if err != nil {
		Fail(c, h.Logger, err, nil)
		return
	}
	Ok(c, p, nil)
}

// @Summary User history projection
// @Tags archive
// @Param uid path string true "user id"
// @Param kind query string false "userbets|userwithdrawal|addmoneybygetway"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Failure 403 {object} apiResponse
// @Router /api/users/{uid}/history [get]
func (h *ArchiveHandler) history(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("uid"))
	if !h.SkipIdentity && !sameSubject(c, h.Logger, uid) {
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, err := h.Archive.History(c.Request.Context(), uid, c.Query("kind"), limit, offset)
	if err != nil {
		Fail(c, h.Logger, err, nil)
		return
	}
	Ok(c, items, map[string]any{"limit": limit, "offset": offset})
}
