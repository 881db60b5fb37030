package checkout

import (
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/growmax/storefront-pricing/internal/cart"
	"github.com/growmax/storefront-pricing/internal/common"
	"github.com/growmax/storefront-pricing/internal/obs"
)

// Permissions checked against the gateway identity.
const (
	PermissionCreateOrder  = "order:create"
	PermissionRequestQuote = "quote:request"
)

// Policy holds the seller-level checkout rules.
type Policy struct {
	MinimumOrder Minimum
	MinimumQuote Minimum
	FutureStock  bool
	Formatter    AmountFormatter
}

// Validation is the response body of the validate endpoints.
type Validation struct {
	CalculationID string `json:"calculationId"`
	Result
	GrandTotal string `json:"grandTotal"`
}

type Handler struct {
	Cart     *cart.Service
	Validate *validator.Validate
	Policy   Policy
	Logger   zerolog.Logger
}

// ValidateOrder prices the posted cart and checks whether it can be ordered.
func (h *Handler) ValidateOrder(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "order", func(id common.Identity, authed bool, calc cart.Calculation) Result {
		return ValidateCreateOrder(OrderInput{
			Authenticated:  authed,
			CanCreateOrder: id.Can(PermissionCreateOrder),
			BuyerActive:    id.BuyerActive,
			Items:          calc.Items,
			CartValue:      calc.CartValue,
			FutureStock:    h.Policy.FutureStock,
			MinimumOrder:   h.Policy.MinimumOrder,
			Formatter:      h.Policy.Formatter,
		})
	})
}

// ValidateQuote prices the posted cart and checks whether a quote can be requested.
func (h *Handler) ValidateQuote(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "quote", func(id common.Identity, authed bool, calc cart.Calculation) Result {
		return ValidateRequestQuote(QuoteInput{
			Authenticated:   authed,
			CanRequestQuote: id.Can(PermissionRequestQuote),
			Items:           calc.Items,
			CartValue:       calc.CartValue,
			MinimumQuote:    h.Policy.MinimumQuote,
			Formatter:       h.Policy.Formatter,
		})
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, kind string, check func(common.Identity, bool, cart.Calculation) Result) {
	if h.Cart == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	req, err := cart.DecodeRequest(r, h.Validate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	calc, err := h.Cart.Calculate(r.Context(), req)
	if err != nil {
		appErr := cart.AsAppError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.Logger.Error().Err(err).Str("kind", kind).Msg("checkout_calculation_failed")
		}
		common.WriteError(w, appErr)
		return
	}

	id, authed := common.IdentityFrom(r.Context())
	res := check(id, authed, calc)

	outcome := "valid"
	if !res.IsValid {
		outcome = "invalid"
		h.Logger.Debug().Str("kind", kind).Err(res.Err).Str("calculation_id", calc.ID).Msg("checkout_validation_failed")
	}
	if obs.CheckoutValidationTotal != nil {
		obs.CheckoutValidationTotal.WithLabelValues(kind, outcome).Inc()
	}
	common.Data(w, http.StatusOK, Validation{
		CalculationID: calc.ID,
		Result:        res,
		GrandTotal:    calc.CartValue.GrandTotal.String(),
	})
}
