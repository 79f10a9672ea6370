package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-promotions/internal/codec"
	"github.com/xenking/kart-promotions/internal/domain/cart"
	"github.com/xenking/kart-promotions/internal/domain/user"
)

// cartRequest is the body shared by every evaluation endpoint.
type cartRequest struct {
	Cart          cart.Cart
	User          *user.User
	AllowStacking bool
	CouponIDs     []string
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, invalidField("body", "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, errors.Wrap(err, "read body")
	}
	return data, nil
}

// couponID returns the canonical form of the {id} path parameter.
func couponID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", errInvalidID
	}
	return id.String(), nil
}

// asFieldError keeps a fieldError raised inside a decoder callback and
// reports anything else as malformed JSON.
func asFieldError(err error) error {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe
	}
	return invalidField("body", "malformed JSON: %v", err)
}

func decodeCartRequest(data []byte) (cartRequest, error) {
	var (
		req      cartRequest
		userID   string
		items    []cart.Item
		shipping decimal.Decimal
	)

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return req, invalidField("body", "expected a JSON object")
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userId":
			if userID, err = d.Str(); err != nil {
				return invalidField(key, "must be a string")
			}
		case "items":
			items, err = decodeItems(d)
			return err
		case "shippingCost":
			if shipping, err = codec.ReadDecimal(d); err != nil {
				return invalidField(key, "must be a number")
			}
		case "user":
			req.User, err = decodeUser(d)
			return err
		case "allowStacking":
			if req.AllowStacking, err = d.Bool(); err != nil {
				return invalidField(key, "must be a boolean")
			}
		case "couponIds":
			if req.CouponIDs, err = codec.ReadStrings(d); err != nil {
				return invalidField(key, "must be an array of strings")
			}
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return req, asFieldError(err)
	}

	req.Cart, err = cart.New(userID, items, shipping)
	if err != nil {
		return req, err
	}
	return req, nil
}

func decodeItems(d *jx.Decoder) ([]cart.Item, error) {
	if d.Next() != jx.Array {
		return nil, invalidField("items", "must be an array")
	}
	var items []cart.Item
	err := d.Arr(func(d *jx.Decoder) error {
		i := len(items)
		var (
			it                      cart.Item
			hasID, hasQty, hasPrice bool
		)
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				hasID = true
				if it.ProductID, err = d.Str(); err != nil {
					return invalidField(itemField(i, key), "must be a string")
				}
			case "quantity":
				hasQty = true
				if it.Quantity, err = d.Int(); err != nil {
					return invalidField(itemField(i, key), "must be an integer")
				}
			case "price":
				hasPrice = true
				if it.Price, err = codec.ReadDecimal(d); err != nil {
					return invalidField(itemField(i, key), "must be a number")
				}
			default:
				return d.Skip()
			}
			return nil
		})
		if err != nil {
			return err
		}
		switch {
		case !hasID || it.ProductID == "":
			return invalidField(itemField(i, "productId"), "is required")
		case !hasQty:
			return invalidField(itemField(i, "quantity"), "is required")
		case !hasPrice:
			return invalidField(itemField(i, "price"), "is required")
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func itemField(i int, key string) string {
	return "items[" + strconv.Itoa(i) + "]." + key
}

func decodeUser(d *jx.Decoder) (*user.User, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	if d.Next() != jx.Object {
		return nil, invalidField("user", "must be an object")
	}
	var u user.User
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "type", "userType":
			u.Type, err = d.Str()
		case "isFirstTime":
			u.IsFirstTime, err = d.Bool()
		case "loyaltyLevel":
			u.LoyaltyLevel, err = d.Int()
		case "orderCount", "totalOrders":
			u.OrderCount, err = d.Int()
		case "registrationDate":
			var t *time.Time
			if t, err = codec.ReadOptionalTime(d); t != nil {
				u.RegistrationDate = *t
			}
		default:
			return d.Skip()
		}
		if err != nil {
			return invalidField("user."+key, "has an invalid value")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
