// Generation HTTP handler.
//
// This file exposes POST /generate, the main endpoint of the app: it
// validates the decoration request, reserves one generation from the quota
// ledger, calls the external image service, and returns the decorated image
// with affiliate product suggestions and the authoritative counters.
//
// Reservation/compensation: the quota decrement happens before the external
// call and is restored when that call fails. The external service is never
// inside the ledger's consistency domain; a failed restore is logged for
// reconciliation rather than retried.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmmlabs/holidayhome-backend/internal/gemini"
	"github.com/jmmlabs/holidayhome-backend/internal/http/middleware"
	"github.com/jmmlabs/holidayhome-backend/internal/products"
	"github.com/jmmlabs/holidayhome-backend/internal/services"
	"github.com/jmmlabs/holidayhome-backend/internal/utils"
)

//
// DTOs
//

// GenerateRequest is the JSON payload for a decoration job.
type GenerateRequest struct {
	// DeviceID identifies the requesting device's quota ledger row.
	DeviceID string `json:"device_id" example:"0F2B7A1C-9D34-4E56-8A01-C2D3E4F50617"`
	// Scene is "interior" or "exterior".
	Scene string `json:"scene" example:"interior"`
	// Style is a preset name or "custom".
	Style string `json:"style" example:"classic_christmas"`
	// Prompt describes the decoration; required when Style is "custom".
	Prompt string `json:"prompt,omitempty"`
	// Lighting is "day" or "night" (defaults to "day").
	Lighting string `json:"lighting,omitempty" example:"day"`
	// Intensity is minimal|light|medium|heavy|maximal (defaults to "medium").
	Intensity string `json:"intensity,omitempty" example:"medium"`
	// ImageBase64 is the source photo as a data URL.
	ImageBase64 string `json:"image_base64"`
}

// GenerateResponse carries the decorated image, shopping suggestions, and
// the server-side quota counters the client must adopt.
type GenerateResponse struct {
	DecoratedImageBase64 string             `json:"decorated_image_base64"`
	Products             []products.Product `json:"products"`
	GenerationsRemaining int                `json:"generationsRemaining"`
	TotalGenerated       int                `json:"totalGenerated"`
}

var (
	validScenes = map[string]bool{"interior": true, "exterior": true}
	validStyles = map[string]bool{
		"classic_christmas": true, "nordic_minimalist": true, "modern_silver": true,
		"cozy_family": true, "rustic_farmhouse": true, "elegant_gold": true,
		"colorful_whimsical": true, "custom": true,
	}
	validIntensities = map[string]bool{
		"minimal": true, "light": true, "medium": true, "heavy": true, "maximal": true,
	}
)

// validateGenerate normalizes defaults and collects every validation failure
// so the client sees the full list at once.
func validateGenerate(req *GenerateRequest) []string {
	var errs []string

	if strings.TrimSpace(req.DeviceID) == "" {
		errs = append(errs, "device_id is required")
	}
	switch {
	case req.Scene == "":
		errs = append(errs, "scene is required")
	case !validScenes[req.Scene]:
		errs = append(errs, `scene must be either "interior" or "exterior"`)
	}
	switch {
	case req.Style == "":
		errs = append(errs, "style is required")
	case !validStyles[req.Style]:
		errs = append(errs, "invalid style")
	}
	if req.Style == "custom" && strings.TrimSpace(req.Prompt) == "" {
		errs = append(errs, `prompt is required when style is "custom"`)
	}
	if req.Lighting == "" {
		req.Lighting = "day"
	} else if req.Lighting != "day" && req.Lighting != "night" {
		errs = append(errs, `lighting must be either "day" or "night"`)
	}
	if req.Intensity == "" {
		req.Intensity = "medium"
	} else if !validIntensities[req.Intensity] {
		errs = append(errs, "invalid intensity")
	}
	switch {
	case req.ImageBase64 == "":
		errs = append(errs, "image_base64 is required")
	case !utils.IsImageDataURL(req.ImageBase64):
		errs = append(errs, "image_base64 must be a valid data URL")
	}
	return errs
}

// Generate godoc
// @ID          generate
// @Summary     Generate a decorated image
// @Description Reserves one generation from the device quota, calls the image
// @Description service, and returns the decorated photo with product suggestions.
// @Tags        Generation
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.GenerateRequest  true  "Decoration job"
//
// @Success     200  {object}  handlers.GenerateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure"
// @Failure     403  {object}  handlers.ErrorResponse  "Quota exhausted (includes counters)"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation or storage failure"
// @Router      /generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if errs := validateGenerate(&req); len(errs) > 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}
	middleware.SetDeviceID(c, strings.TrimSpace(req.DeviceID))

	// Reserve quota before touching the external service.
	u, err := h.quotaSvc.Consume(ctx, req.DeviceID)
	switch {
	case err == services.ErrQuotaExhausted:
		failWith(c, http.StatusForbidden, ErrorResponse{
			Code:                 ErrCodeQuotaExhausted,
			Message:              "no generations remaining",
			GenerationsRemaining: &u.GenerationsRemaining,
			TotalGenerated:       &u.TotalGenerated,
		})
		return
	case err == services.ErrInvalidDeviceID:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "device_id is required")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	decoration, err := h.image.Decorate(ctx, gemini.DecorateRequest{
		ImageBase64: utils.ExtractBase64(req.ImageBase64),
		MimeType:    utils.MimeType(req.ImageBase64),
		Scene:       req.Scene,
		Style:       req.Style,
		Prompt:      strings.TrimSpace(req.Prompt),
		Lighting:    req.Lighting,
		Intensity:   req.Intensity,
	})
	if err != nil {
		// Compensate the reservation. A failed restore leaves the ledger one
		// short for this device; surface it loudly for reconciliation.
		if rerr := h.quotaSvc.Restore(ctx, u.DeviceID); rerr != nil {
			lg.Error().
				Err(rerr).
				Str("device_id", u.DeviceID).
				Msg("quota restore failed after generation failure")
		}
		lg.Error().Err(err).Str("style", req.Style).Msg("image generation failed")
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, "failed to generate decorated image")
		return
	}

	// Product suggestions are best effort: analysis failure falls back to
	// the static catalog rather than failing a successful generation.
	suggestions, serr := h.image.SuggestProducts(ctx, decoration.ImageBase64, decoration.MimeType)
	if serr != nil {
		lg.Warn().Err(serr).Msg("product suggestion failed, using fallback catalog")
		suggestions = nil
	}

	ok(c, http.StatusOK, GenerateResponse{
		DecoratedImageBase64: utils.DataURL(decoration.MimeType, decoration.ImageBase64),
		Products:             h.catalog.FromSuggestions(req.Style, suggestions),
		GenerationsRemaining: u.GenerationsRemaining,
		TotalGenerated:       u.TotalGenerated,
	})
}
