package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/growmax/storefront-pricing/internal/common"
	"github.com/growmax/storefront-pricing/internal/pricelist"
	"github.com/growmax/storefront-pricing/internal/pricing"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Calculate prices the posted cart.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	req, err := DecodeRequest(r, h.Validate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	calc, err := h.Svc.Calculate(r.Context(), req)
	if err != nil {
		appErr := AsAppError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.Logger.Error().Err(err).Msg("cart_calculation_failed")
		}
		common.WriteError(w, appErr)
		return
	}
	common.Data(w, http.StatusOK, calc)
}

// DecodeRequest reads and validates a CalculateRequest body. Errors are *common.AppError.
func DecodeRequest(r *http.Request, validate *validator.Validate) (CalculateRequest, error) {
	var req CalculateRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return CalculateRequest{}, common.NewAppError("BAD_REQUEST", "invalid JSON payload", http.StatusBadRequest, err)
	}
	if validate == nil {
		return req, nil
	}
	if err := validate.Struct(req); err != nil {
		appErr := common.NewAppError("VALIDATION_FAILED", "request payload is invalid", http.StatusBadRequest, err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			appErr.Details = fields
		}
		return CalculateRequest{}, appErr
	}
	return req, nil
}

// AsAppError maps calculation errors onto HTTP codes.
func AsAppError(err error) *common.AppError {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, pricelist.ErrPricingUnavailable):
		return common.NewAppError("PRICING_UNAVAILABLE", pricelist.ErrPricingUnavailable.Error(), http.StatusBadGateway, err)
	case errors.Is(err, pricing.ErrInvalidPricingPayload):
		return common.NewAppError("INVALID_PRODUCT", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrInvalidAskedQuantity), errors.Is(err, pricing.ErrNegativePrecision):
		return common.NewAppError("INVALID_CART", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrPricelistDisabled):
		return common.NewAppError("PRICELIST_DISABLED", err.Error(), http.StatusBadRequest, err)
	default:
		return common.NewAppError("INTERNAL", "internal server error", http.StatusInternalServerError, err)
	}
}
