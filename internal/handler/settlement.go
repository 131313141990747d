package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lottoledger/internal/service"
)

type SettlementHandler struct {
	Settlement *service.SettlementService
	Revert     *service.RevertService
	Shift      *service.ShiftService
	Logger     *zap.Logger
	// Operator guards the group; nil leaves it open.
	Operator gin.HandlerFunc
}

func (h *SettlementHandler) Register(r *gin.Engine) {
	g := r.Group("/api/settlement", guarded(h.Operator)...)
	g.POST("/settle", h.settle)
	g.POST("/revert", h.revert)
	g.POST("/shift", h.shift)
}

// @Summary Settle one window of a game
// @Tags settlement
// @Param body body service.SettleRequest true "settlement"
// @Success 200 {object} apiResponse
// @Failure 500 {object} apiResponse
// @Router /api/settlement/settle [post]
func (h *SettlementHandler) settle(c *gin.Context) {
	var req service.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	rep, err := h.Settlement.Settle(c.Request.Context(), req)
	if err != nil {
		Fail(c, h.Logger, err, rep)
		return
	}
	Ok(c, rep, nil)
}

// @Summary Revert settled bets of a game
// @Tags settlement
// @Param body body service.RevertRequest true "revert"
// @Success 200 {object} apiResponse
// @Router /api/settlement/revert [post]
func (h *SettlementHandler) revert(c *gin.Context) {
	var req service.RevertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	rep, err := h.Revert.Revert(c.Request.Context(), req)
	if err != nil {
		Fail(c, h.Logger, err, rep)
		return
	}
	Ok(c, rep, nil)
}

// @Summary Shift settled bets to the completed ledger
// @Tags settlement
// @Param body body service.ShiftRequest false "optional game filter"
// @Success 200 {object} apiResponse
// @Router /api/settlement/shift [post]
func (h *SettlementHandler) shift(c *gin.Context) {
	var req service.ShiftRequest
	// An empty body shifts every game.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	rep, err := h.Shift.Shift(c.Request.Context(), req)
	if err != nil {
		Fail(c, h.Logger, err, rep)
		return
	}
	Ok(c, rep, nil)
}
