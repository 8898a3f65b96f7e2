// Purchase-credit HTTP handler.
//
// POST /generations/credit reconciles store purchases into generation
// credits. The store may redeliver receipts, so the endpoint accepts a batch
// of transaction ids and credits each at most once; replays succeed with
// zero newly credited transactions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmmlabs/holidayhome-backend/internal/services"
)

// CreditRequest submits purchased transactions for crediting.
type CreditRequest struct {
	DeviceID       string   `json:"deviceId" binding:"required"`
	ProductID      string   `json:"productId" binding:"required" example:"holiday_basic_pack"`
	TransactionIDs []string `json:"transactionIds" binding:"required"`
}

// CreditResponse reports how many transactions were newly credited and the
// resulting ledger counters.
type CreditResponse struct {
	CreditedTransactions int `json:"creditedTransactions" example:"1"`
	CreditedAmount       int `json:"creditedAmount" example:"10"`
	GenerationsRemaining int `json:"generationsRemaining"`
	TotalGenerated       int `json:"totalGenerated"`
}

// CreditPurchase godoc
// @ID          creditPurchase
// @Summary     Apply purchase credits
// @Description Credits the device's quota for each transaction id not seen
// @Description before. Previously credited ids are skipped, so the endpoint is
// @Description safe to retry with the same receipt batch.
// @Tags        Purchases
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreditRequest  true  "Receipt batch"
//
// @Success     200  {object}  handlers.CreditResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation or unsupported_product"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /generations/credit [post]
func (h *Handlers) CreditPurchase(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deviceId, productId, and transactionIds are required")
		return
	}

	outcome, err := h.purchaseSvc.Credit(c.Request.Context(), req.DeviceID, req.ProductID, req.TransactionIDs)
	switch {
	case err == services.ErrInvalidDeviceID:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deviceId is required")
		return
	case err == services.ErrUnsupportedProduct:
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedProduct, "unknown productId")
		return
	case err == services.ErrNoTransactions:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "transactionIds must contain at least one id")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, CreditResponse{
		CreditedTransactions: outcome.CreditedTransactions,
		CreditedAmount:       outcome.CreditedAmount,
		GenerationsRemaining: outcome.GenerationsRemaining,
		TotalGenerated:       outcome.TotalGenerated,
	})
}
