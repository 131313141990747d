package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lottoledger/internal/service"
)

type GamesHandler struct {
	Results *service.GameResultService
	Logger  *zap.Logger
	// Operator guards the group; nil leaves it open.
	Operator gin.HandlerFunc
}

func (h *GamesHandler) Register(r *gin.Engine) {
	g := r.Group("/api/games", guarded(h.Operator)...)
	g.POST("/clear-results", h.clearResults)
	g.POST("/:id/result", h.publish)
}

type publishResultRequest struct {
	Result string `json:"result"`
}

// @Summary Publish a game result
// @Tags games
// @Param id path string true "game id"
// @Param body body publishResultRequest true "result"
// @Success 200 {object} apiResponse
// @Router /api/games/{id}/result [post]
func (h *GamesHandler) publish(c *gin.Context) {
	var req publishResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	res, err := h.Results.Publish(c.Request.Context(), c.Param("id"), req.Result)
	if err != nil {
		Fail(c, h.Logger, err, nil)
		return
	}
	Ok(c, gin.H{"game_id": c.Param("id"), "result": res.String(), "parsed": res}, nil)
}

// @Summary Reset every game result
// @Tags games
// @Success 200 {object} apiResponse
// @Router /api/games/clear-results [post]
func (h *GamesHandler) clearResults(c *gin.Context) {
	n, err := h.Results.ClearResults(c.Request.Context())
	if err != nil {
		Fail(c, h.Logger, err, gin.H{"cleared": n})
		return
	}
	Ok(c, gin.H{"cleared": n}, nil)
}
