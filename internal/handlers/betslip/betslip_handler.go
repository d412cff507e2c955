// internal/handlers/betslip/betslip_handler.go
package betslip

import (
	"net/http"

	"tipster-service/internal/domain/betslip"
	"tipster-service/internal/handlers"
	"tipster-service/internal/middleware"
	"tipster-service/internal/pkg/response"
	"tipster-service/internal/pkg/validation"
	service "tipster-service/internal/service/betslip"

	"github.com/gin-gonic/gin"
)

type BetslipHandler struct {
	settlement *service.SettlementService
}

func NewBetslipHandler(settlement *service.SettlementService) *BetslipHandler {
	return &BetslipHandler{settlement: settlement}
}

// GetBetslip returns a betslip with its legs
func (h *BetslipHandler) GetBetslip(c *gin.Context) {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	details, err := h.settlement.Get(c.Request.Context(), id, middleware.MustGetActor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "betslip retrieved", details)
}

func (h *BetslipHandler) CreateBetslip(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	var req betslip.CreateBetslipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	b, err := h.settlement.Create(c.Request.Context(), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "betslip created", b)
}

// AddLeg appends a leg; any leg_order in the body is ignored
func (h *BetslipHandler) AddLeg(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req betslip.AddLegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	leg, err := h.settlement.AddLeg(c.Request.Context(), id, &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "leg added", leg)
}

func (h *BetslipHandler) Settle(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req betslip.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	result, err := h.settlement.SettleSingle(c.Request.Context(), id, req.Outcome, req.Notes, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "betslip settled", result)
}

func (h *BetslipHandler) SettleLeg(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	legID, err := handlers.ParamID(c, "legId")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req betslip.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	result, err := h.settlement.SettleLeg(c.Request.Context(), legID, req.Outcome, req.Notes, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "leg settled", result)
}

// BulkSettle always answers 200 once the outcome is valid; per-item failures
// are in the result.
func (h *BetslipHandler) BulkSettle(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	var req betslip.BulkSettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	result, err := h.settlement.BulkSettle(c.Request.Context(), req.BetslipIDs, req.Outcome, req.Notes, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "bulk settlement finished", result)
}
