// Referral HTTP handlers.
//
// Endpoints for issuing referral codes, claiming them, and reading referral
// stats. Issuance is idempotent per device; claims are single-shot per
// (code, claimer) pair and reject self-claims. All ledger mutations happen
// inside the referral service's transaction, so these handlers only
// translate inputs and sentinel errors.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmmlabs/holidayhome-backend/internal/services"
)

//
// DTOs
//

// GenerateReferralRequest asks for the caller's referral code.
type GenerateReferralRequest struct {
	DeviceID string `json:"deviceId" binding:"required" example:"0F2B7A1C-9D34-4E56-8A01-C2D3E4F50617"`
}

// GenerateReferralResponse returns the device's code and its share link.
type GenerateReferralResponse struct {
	Code     string `json:"code" example:"K7XQ2M"`
	ShareURL string `json:"shareUrl" example:"https://holidayhomeai.up.railway.app/r/K7XQ2M"`
}

// ClaimReferralRequest redeems a referral code for the claiming device.
type ClaimReferralRequest struct {
	Code            string `json:"code" binding:"required" example:"K7XQ2M"`
	ClaimerDeviceID string `json:"claimerDeviceId" binding:"required"`
}

// ClaimReferralResponse reports the credits granted by a successful claim.
type ClaimReferralResponse struct {
	Success          bool        `json:"success"`
	Reward           ClaimReward `json:"reward"`
	ReferrerDeviceID string      `json:"referrerDeviceId"`
}

// ClaimReward is the per-party credit breakdown of a claim.
type ClaimReward struct {
	Claimer  int `json:"claimer" example:"3"`
	Referrer int `json:"referrer" example:"3"`
}

// UserResponse is the quota ledger view returned by GET /referral/user/:deviceId.
type UserResponse struct {
	DeviceID             string `json:"deviceId"`
	GenerationsRemaining int    `json:"generationsRemaining"`
	TotalGenerated       int    `json:"totalGenerated"`
}

// GenerateReferral godoc
// @ID          generateReferral
// @Summary     Issue (or return) the device's referral code
// @Description Returns the caller's referral code and share URL, creating the
// @Description code on first request. Repeated calls return the same code.
// @Tags        Referral
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.GenerateReferralRequest  true  "Device identity"
//
// @Success     200  {object}  handlers.GenerateReferralResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /referral/generate-referral [post]
func (h *Handlers) GenerateReferral(c *gin.Context) {
	var req GenerateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deviceId is required")
		return
	}

	issued, err := h.referralSvc.GenerateOrGet(c.Request.Context(), req.DeviceID)
	switch {
	case err == services.ErrInvalidDeviceID:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deviceId is required")
		return
	case err == services.ErrCodeSpaceExhausted:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not allocate a referral code")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, GenerateReferralResponse{
		Code:     issued.Code,
		ShareURL: issued.ShareURL,
	})
}

// ClaimReferral godoc
// @ID          claimReferral
// @Summary     Redeem a referral code
// @Description Credits both the claimer and the referrer. Each (code, device)
// @Description pair can claim at most once; claiming one's own code is rejected.
// @Tags        Referral
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ClaimReferralRequest  true  "Claim"
//
// @Success     200  {object}  handlers.ClaimReferralResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation, self_claim, or already_claimed"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown code"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /referral/claim-referral [post]
func (h *Handlers) ClaimReferral(c *gin.Context) {
	var req ClaimReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code and claimerDeviceId are required")
		return
	}

	res, err := h.referralSvc.Claim(c.Request.Context(), req.Code, req.ClaimerDeviceID)
	switch {
	case err == services.ErrInvalidDeviceID:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "claimerDeviceId is required")
		return
	case err == services.ErrCodeNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "referral code not found")
		return
	case err == services.ErrSelfClaim:
		fail(c, http.StatusBadRequest, ErrCodeSelfClaim, "cannot claim your own referral code")
		return
	case err == services.ErrAlreadyClaimed:
		fail(c, http.StatusBadRequest, ErrCodeAlreadyClaimed, "referral code already claimed by this device")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, ClaimReferralResponse{
		Success: true,
		Reward: ClaimReward{
			Claimer:  res.ClaimerReward,
			Referrer: res.ReferrerReward,
		},
		ReferrerDeviceID: res.ReferrerDeviceID,
	})
}

// GetUser godoc
// @ID          getUser
// @Summary     Fetch (or create) a device's quota ledger
// @Description Returns the authoritative generation counters for a device,
// @Description creating the ledger row with the initial free grant on first touch.
// @Tags        Referral
// @Produce     json
//
// @Param       deviceId  path  string  true  "Device identifier"
//
// @Success     200  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /referral/user/{deviceId} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	deviceID := strings.TrimSpace(c.Param("deviceId"))

	u, err := h.quotaSvc.GetOrCreate(c.Request.Context(), deviceID)
	switch {
	case err == services.ErrInvalidDeviceID:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deviceId is required")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, UserResponse{
		DeviceID:             u.DeviceID,
		GenerationsRemaining: u.GenerationsRemaining,
		TotalGenerated:       u.TotalGenerated,
	})
}

// GetStats godoc
// @ID          getReferralStats
// @Summary     Referral performance for a device
// @Description Returns the device's code, total claims, and designs earned.
// @Tags        Referral
// @Produce     json
//
// @Param       deviceId  path  string  true  "Device identifier"
//
// @Success     200  {object}  services.ReferralStats
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Device has no referral code"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /referral/stats/{deviceId} [get]
func (h *Handlers) GetStats(c *gin.Context) {
	deviceID := strings.TrimSpace(c.Param("deviceId"))

	stats, err := h.referralSvc.Stats(c.Request.Context(), deviceID)
	switch {
	case err == services.ErrInvalidDeviceID:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deviceId is required")
		return
	case err == services.ErrCodeNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no referral code for this device")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, stats)
}

// GetCodeStats godoc
// @ID          getCodeStats
// @Summary     Public stats for a referral code
// @Description Returns claim counts and recent claim times for a code without
// @Description exposing any device identifiers.
// @Tags        Referral
// @Produce     json
//
// @Param       code  path  string  true  "Referral code"
//
// @Success     200  {object}  services.CodeStats
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /referral/referral-stats/{code} [get]
func (h *Handlers) GetCodeStats(c *gin.Context) {
	stats, err := h.referralSvc.StatsByCode(c.Request.Context(), c.Param("code"))
	switch {
	case err == services.ErrCodeNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "referral code not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, stats)
}
