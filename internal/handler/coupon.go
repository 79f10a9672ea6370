package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-promotions/internal/codec"
	"github.com/xenking/kart-promotions/internal/domain/coupon"
	"github.com/xenking/kart-promotions/internal/domain/promotion"
)

// CreateCoupon handles POST /api/coupons. The body is a coupon document.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	data, err := h.readBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := codec.DecodeCoupon(data)
	if err != nil {
		fail(w, r, asCouponError(err))
		return
	}
	created, err := h.svc.CreateCoupon(r.Context(), c)
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/coupons/"+created.ID)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { codec.EncodeCoupon(e, created) })
}

// UpdateCoupon handles PUT /api/coupons/{id}. The body is a full coupon
// document that replaces the stored definition.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	data, err := h.readBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := codec.DecodeCoupon(data)
	if err != nil {
		fail(w, r, asCouponError(err))
		return
	}
	updated, err := h.svc.UpdateCoupon(r.Context(), id, c)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { codec.EncodeCoupon(e, updated) })
}

// asCouponError passes coupon validation errors through and reports syntax
// errors as a malformed body.
func asCouponError(err error) error {
	var ve *coupon.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return asFieldError(err)
}

// ListCoupons handles GET /api/coupons?active=true&type=tiered&search=sum.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := promotion.CouponFilter{
		Type:   coupon.Type(q.Get("type")),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail(w, r, invalidField("active", "must be a boolean"))
			return
		}
		f.ActiveOnly = b
	}
	if f.Type != "" && !f.Type.Valid() {
		fail(w, r, invalidField("type", "unknown coupon type %q", f.Type))
		return
	}
	coupons, err := h.svc.ListCoupons(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("count", func(e *jx.Encoder) { e.Int(len(coupons)) })
			e.Field("coupons", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range coupons {
						codec.EncodeCoupon(e, &coupons[i])
					}
				})
			})
		})
	})
}

// GetCoupon handles GET /api/coupons/{id}.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.GetCoupon(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { codec.EncodeCoupon(e, c) })
}

// DeactivateCoupon handles DELETE /api/coupons/{id}. Coupons are soft
// deleted so historical usage stays attributable.
func (h *Handler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.DeactivateCoupon(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
