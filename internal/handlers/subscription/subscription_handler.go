// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"context"
	"net/http"
	"time"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/subscription"
	"tipster-service/internal/handlers"
	"tipster-service/internal/middleware"
	xerrors "tipster-service/internal/pkg/errors"
	"tipster-service/internal/pkg/response"
	"tipster-service/internal/pkg/validation"
	service "tipster-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

// HistoryReader lists the audit trail of an entity.
type HistoryReader interface {
	History(ctx context.Context, entityType audit.EntityType, entityID int64) ([]audit.Entry, error)
}

type SubscriptionHandler struct {
	lifecycle *service.LifecycleService
	history   HistoryReader
}

func NewSubscriptionHandler(lifecycle *service.LifecycleService, history HistoryReader) *SubscriptionHandler {
	return &SubscriptionHandler{
		lifecycle: lifecycle,
		history:   history,
	}
}

// ========== User Endpoints ==========

// ListPackages lists the packages on sale
func (h *SubscriptionHandler) ListPackages(c *gin.Context) {
	pkgs, err := h.lifecycle.ListPackages(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	type packageView struct {
		subscription.Package
		DiscountPercent int `json:"discount_percent"`
	}
	views := make([]packageView, 0, len(pkgs))
	for i := range pkgs {
		views = append(views, packageView{Package: pkgs[i], DiscountPercent: pkgs[i].DiscountPercent()})
	}

	response.Success(c, http.StatusOK, "packages retrieved", views)
}

// CreateSubscription requests a subscription for the caller
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	var req subscription.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	sub, err := h.lifecycle.Create(c.Request.Context(), actor.ID, &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription requested", sub)
}

// GetSubscription returns a subscription with its receipts
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	details, err := h.lifecycle.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", details)
}

// SubmitPayment attaches a payment receipt to a pending subscription
func (h *SubscriptionHandler) SubmitPayment(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req subscription.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	receipt, err := h.lifecycle.SubmitPayment(c.Request.Context(), id, &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "payment submitted for review", receipt)
}

// ========== Admin Endpoints ==========

func (h *SubscriptionHandler) Approve(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req subscription.ApproveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.FromError(c, validation.Binding(err))
			return
		}
	}

	var startAt, endAt time.Time
	if req.StartAt != nil {
		startAt = *req.StartAt
	}
	if req.EndAt != nil {
		endAt = *req.EndAt
	}

	result, err := h.lifecycle.Approve(c.Request.Context(), id, startAt, endAt, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result.Message, result)
}

func (h *SubscriptionHandler) Reject(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req subscription.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	result, err := h.lifecycle.Reject(c.Request.Context(), id, req.Reason, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result.Message, result)
}

func (h *SubscriptionHandler) Expire(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	// The reason is optional, so is the body
	var req subscription.ExpireRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.FromError(c, validation.Binding(err))
			return
		}
	}

	result, err := h.lifecycle.Expire(c.Request.Context(), id, req.Reason, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result.Message, result)
}

func (h *SubscriptionHandler) UpdateNotes(c *gin.Context) {
	actor := middleware.MustGetActor(c)

	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req subscription.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validation.Binding(err))
		return
	}

	sub, err := h.lifecycle.UpdateNotes(c.Request.Context(), id, req.Notes, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "notes updated", sub)
}

// History returns the audit trail of a subscription
func (h *SubscriptionHandler) History(c *gin.Context) {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	entries, err := h.history.History(c.Request.Context(), audit.EntitySubscription, id)
	if err != nil {
		response.FromError(c, xerrors.Internal("failed to load history", err))
		return
	}

	response.Success(c, http.StatusOK, "history retrieved", entries)
}

// Sweep runs the expiry sweep on demand
func (h *SubscriptionHandler) Sweep(c *gin.Context) {
	result, err := h.lifecycle.ExpireEndedSweep(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sweep completed", result)
}
