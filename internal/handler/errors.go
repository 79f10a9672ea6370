package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/coupon"
)

var errInvalidID = errors.New("invalid coupon ID format")

// fieldError reports a malformed request field.
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, format string, args ...any) error {
	return &fieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type apiError struct {
	Code    string
	Message string
	Field   string
}

// classify maps a domain error to a status and an API error body.
func classify(err error) (int, apiError) {
	var (
		fieldErr  *fieldError
		couponErr *coupon.ValidationError
		itemErr   *cart.InvalidItemError
		notApp    *coupon.NotApplicableError
	)
	switch {
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: fieldErr.Message, Field: fieldErr.Field}
	case errors.As(err, &couponErr):
		return http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: couponErr.Reason, Field: couponErr.Field}
	case errors.As(err, &itemErr):
		return http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: itemErr.Error(), Field: "items"}
	case errors.Is(err, cart.ErrEmptyItems):
		return http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: "at least one item is required", Field: "items"}
	case errors.Is(err, cart.ErrNegativeShipping):
		return http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: cart.ErrNegativeShipping.Error(), Field: "shippingCost"}
	case errors.Is(err, errInvalidID):
		return http.StatusBadRequest, apiError{Code: "INVALID_ID_FORMAT", Message: "Invalid coupon ID format"}
	case errors.Is(err, coupon.ErrNotFound):
		return http.StatusNotFound, apiError{Code: "NOT_FOUND", Message: "Coupon not found"}
	case errors.Is(err, coupon.ErrCodeTaken):
		return http.StatusConflict, apiError{Code: "DUPLICATE_ENTRY", Message: "Coupon code already exists", Field: "code"}
	case errors.As(err, &notApp):
		return http.StatusBadRequest, apiError{Code: "COUPON_NOT_APPLICABLE", Message: notApp.Reason}
	default:
		return http.StatusInternalServerError, apiError{Code: "INTERNAL_ERROR", Message: "Internal server error"}
	}
}

// fail writes err as an API error. Unclassified errors are logged.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeAPIError(w, status, body)
}

func writeAPIError(w http.ResponseWriter, status int, body apiError) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(body.Code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(body.Message) })
			if body.Field != "" {
				e.Field("field", func(e *jx.Encoder) { e.Str(body.Field) })
			}
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
