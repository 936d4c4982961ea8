package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

const defaultSupplierLedgerLimit = 20

// paymentHandler handles purchase-order payments, their drafts and supplier credit.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

// RegisterPaymentRoutes registers payment and supplier ledger routes.
func RegisterPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.processPayment)
		payments.POST("/preview", h.previewPayment)
		payments.GET("/drafts/:id", h.getDraft)
		payments.POST("/drafts/:id/approve", h.approveDraft)
		payments.POST("/drafts/:id/reject", h.rejectDraft)
	}

	suppliers := rg.Group("/suppliers")
	{
		suppliers.POST("/:id/credit", h.topUpSupplierCredit)
		suppliers.GET("/:id/ledger", h.getSupplierLedger)
	}
}

// processPayment godoc
// @Summary Process a purchase-order payment
// @Description Splits the amount due between supplier credit and bank and creates one draft per source for approval
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.ProcessPaymentRequest true "Payment"
// @Success 201 {object} dto.ProcessPaymentResponse
// @Failure 400 {object} map[string]string "Invalid payment"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 422 {object} map[string]string "Bank account has no linked posting account"
// @Failure 500 {object} map[string]string "Failed to process payment"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) processPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ProcessPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.ProcessPayment(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to process payment")
		return
	}

	logger.Info("Payment drafts created",
		slog.String("purchase_order_id", req.PurchaseOrderID),
		slog.Int("drafts", len(resp.Drafts)))
	c.JSON(http.StatusCreated, resp)
}

// previewPayment godoc
// @Summary Preview a payment breakdown
// @Description Computes the credit and bank split and the projected bank balance without side effects
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.PaymentPreviewRequest true "Payment preview"
// @Success 200 {object} dto.PaymentPreviewResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Security BearerAuth
// @Router /payments/preview [post]
func (h *paymentHandler) previewPayment(c *gin.Context) {
	var req dto.PaymentPreviewRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.PreviewPayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to preview payment")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getDraft godoc
// @Summary Get a payment draft
// @Tags payments
// @Produce  json
// @Param   id path string true "Draft ID"
// @Success 200 {object} dto.PaymentDraftResponse
// @Failure 404 {object} map[string]string "Draft not found"
// @Security BearerAuth
// @Router /payments/drafts/{id} [get]
func (h *paymentHandler) getDraft(c *gin.Context) {
	draft, err := h.paymentService.GetDraftByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payment draft")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentDraftResponse(draft))
}

// approveDraft godoc
// @Summary Approve a payment draft
// @Description Posts the draft's ledger entry and marks it posted
// @Tags payments
// @Produce  json
// @Param   id path string true "Draft ID"
// @Success 200 {object} dto.PaymentDraftResponse
// @Failure 404 {object} map[string]string "Draft not found"
// @Failure 409 {object} map[string]string "Draft is not pending approval"
// @Failure 422 {object} map[string]string "Bank account has no linked posting account"
// @Failure 503 {object} map[string]string "Could not assign an entry number"
// @Failure 500 {object} map[string]string "Failed to approve payment draft"
// @Security BearerAuth
// @Router /payments/drafts/{id}/approve [post]
func (h *paymentHandler) approveDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	draftID := c.Param("id")

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	draft, err := h.paymentService.ApproveDraft(c.Request.Context(), draftID, userID)
	if err != nil {
		respondError(c, err, "Failed to approve payment draft")
		return
	}

	logger.Info("Payment draft approved", slog.String("draft_id", draftID))
	c.JSON(http.StatusOK, dto.ToPaymentDraftResponse(draft))
}

// rejectDraft godoc
// @Summary Reject a payment draft
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Draft ID"
// @Param   rejection body dto.RejectDraftRequest true "Rejection reason"
// @Success 200 {object} dto.PaymentDraftResponse
// @Failure 404 {object} map[string]string "Draft not found"
// @Failure 409 {object} map[string]string "Draft can no longer be rejected"
// @Security BearerAuth
// @Router /payments/drafts/{id}/reject [post]
func (h *paymentHandler) rejectDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	draftID := c.Param("id")

	var req dto.RejectDraftRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	draft, err := h.paymentService.RejectDraft(c.Request.Context(), draftID, req.Reason, userID)
	if err != nil {
		respondError(c, err, "Failed to reject payment draft")
		return
	}

	logger.Info("Payment draft rejected", slog.String("draft_id", draftID))
	c.JSON(http.StatusOK, dto.ToPaymentDraftResponse(draft))
}

// topUpSupplierCredit godoc
// @Summary Add supplier credit
// @Description Posts the advance against the given bank's linked account, or payable, and books it on the supplier ledger
// @Tags suppliers
// @Accept  json
// @Produce  json
// @Param   id path string true "Supplier ID"
// @Param   credit body dto.TopUpSupplierCreditRequest true "Credit"
// @Success 201 {object} dto.SupplierLedgerEntryResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 422 {object} map[string]string "Bank account has no linked posting account"
// @Security BearerAuth
// @Router /suppliers/{id}/credit [post]
func (h *paymentHandler) topUpSupplierCredit(c *gin.Context) {
	var req dto.TopUpSupplierCreditRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	entry, err := h.paymentService.TopUpSupplierCredit(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to add supplier credit")
		return
	}
	c.JSON(http.StatusCreated, dto.ToSupplierLedgerEntryResponse(entry))
}

// getSupplierLedger godoc
// @Summary Get a supplier's credit ledger
// @Tags suppliers
// @Produce  json
// @Param   id path string true "Supplier ID"
// @Param   limit query int false "Number of entries to return" default(20)
// @Success 200 {object} dto.SupplierLedgerResponse
// @Failure 400 {object} map[string]string "Invalid limit"
// @Security BearerAuth
// @Router /suppliers/{id}/ledger [get]
func (h *paymentHandler) getSupplierLedger(c *gin.Context) {
	limit := defaultSupplierLedgerLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	resp, err := h.paymentService.GetSupplierLedger(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve supplier ledger")
		return
	}
	c.JSON(http.StatusOK, resp)
}
