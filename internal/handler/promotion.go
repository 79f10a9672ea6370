package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-promotions/internal/codec"
	"github.com/xenking/kart-promotions/internal/domain/promotion"
)

func (h *Handler) readCart(w http.ResponseWriter, r *http.Request) (cartRequest, error) {
	data, err := h.readBody(w, r)
	if err != nil {
		return cartRequest{}, err
	}
	return decodeCartRequest(data)
}

// ApplicableCoupons handles POST /api/applicable-coupons.
func (h *Handler) ApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	req, err := h.readCart(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	evs, err := h.svc.ApplicableCoupons(r.Context(), promotion.Request{
		Cart:          req.Cart,
		User:          req.User,
		AllowStacking: req.AllowStacking,
		CouponIDs:     req.CouponIDs,
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("cart", func(e *jx.Encoder) { encodeCartSummary(e, req.Cart) })
			e.Field("stacked", func(e *jx.Encoder) { e.Bool(req.AllowStacking) })
			e.Field("applicableCoupons", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, ev := range evs {
						encodeEvaluation(e, ev)
					}
				})
			})
		})
	})
}

// CheckApplicability handles POST /api/coupons/{id}/applicability.
func (h *Handler) CheckApplicability(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	req, err := h.readCart(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.svc.CheckApplicability(r.Context(), id, req.Cart, req.User)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("couponId", func(e *jx.Encoder) { e.Str(id) })
			e.Field("isApplicable", func(e *jx.Encoder) { e.Bool(res.Applicable) })
			e.Field("reason", func(e *jx.Encoder) { e.Str(res.Reason) })
		})
	})
}

// CalculateDiscount handles POST /api/coupons/{id}/discount.
func (h *Handler) CalculateDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	req, err := h.readCart(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ev, err := h.svc.CalculateDiscount(r.Context(), id, req.Cart, req.User)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeEvaluation(e, ev) })
}

// ApplyCoupon handles POST /api/apply-coupon/{id}.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	req, err := h.readCart(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.svc.ApplyCoupon(r.Context(), id, req.Cart, req.User)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("cart", func(e *jx.Encoder) { encodeCart(e, res.Cart) })
			e.Field("coupon", func(e *jx.Encoder) { encodeCouponSummary(e, res.Coupon) })
			breakdownFields(e, res.Breakdown)
			e.Field("savings", func(e *jx.Encoder) { codec.WriteMoney(e, res.Savings) })
		})
	})
}
