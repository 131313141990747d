package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lottoledger/internal/ledger"
	"lottoledger/internal/service"
)

type BetsHandler struct {
	Intake *service.IntakeService
	Logger *zap.Logger
	// SkipIdentity accepts the declared uid as-is (auth disabled).
	SkipIdentity bool
}

func (h *BetsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/user-bets")
	for endpoint, code := range ledger.EndpointCodes {
		g.POST("/"+endpoint, h.place(code))
	}
}

type placeBetsRequest struct {
	UID      string             `json:"uid"`
	Code     string             `json:"code"`
	GameID   string             `json:"gameId"`
	GameName string             `json:"gameName"`
	Bets     []service.BetTuple `json:"bets"`
}

// @Summary Place bets for one gamecode
// @Tags bets
// @Param endpoint path string true "singledigitbets|jodidigitsbets|singlepanadigitsbets|doublepanadigitsbets|triplepanadigitsbets|halfsangambets|fullsangambets"
// @Param body body placeBetsRequest true "bets"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 402 {object} apiResponse
// @Failure 403 {object} apiResponse
// @Router /api/user-bets/{endpoint} [post]
func (h *BetsHandler) place(code ledger.Gamecode) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeBetsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, h.Logger, ledger.Invalid("invalid body: %v", err), nil)
			return
		}
		uid := strings.TrimSpace(req.UID)
		if !h.SkipIdentity && !sameSubject(c, h.Logger, uid) {
			return
		}
		res, err := h.Intake.Place(c.Request.Context(), service.PlaceRequest{
			UserID:       uid,
			ExpectedCode: code,
			Code:         req.Code,
			GameID:       req.GameID,
			GameName:     req.GameName,
			Bets:         req.Bets,
		})
		if err != nil {
			Fail(c, h.Logger, err, nil)
			return
		}
		Ok(c, res, nil)
	}
}
