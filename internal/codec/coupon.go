package codec

import (
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-promotions/internal/domain/coupon"
)

var (
	defaultPercentage    = decimal.NewFromInt(100)
	defaultMultiplier    = decimal.NewFromInt(1)
	defaultMaxMultiplier = decimal.NewFromInt(2)
)

// conditions holds every key that may appear under "conditions". Only the
// keys meaningful for the coupon type are copied into its rule.
type conditions struct {
	minimumAmount         *decimal.Decimal
	applicableProducts    []string
	applicableCategories  []string
	applicableBrands      []string
	buyProducts           []coupon.ProductQuantity
	getProducts           []coupon.ProductQuantity
	repetitionLimit       *int
	graduatedRules        []coupon.GraduatedRule
	buyCategories         []string
	getCategories         []string
	buyQuantity           *int
	getQuantity           *int
	getDiscountPercentage *decimal.Decimal
	maxTotalUsage         *int
}

type document struct {
	c          coupon.Coupon
	typ        coupon.Type
	active     *bool
	conditions conditions
	tiers      []coupon.Tier
	flashSale  *coupon.FlashSale
	criteria   *coupon.UserCriteria
}

// DecodeCoupon parses a single coupon document.
//
// Numbers may be JSON numbers or numeric strings. Of the type-specific blocks
// (conditions, tieredRules, flashSaleData, userCriteria) only the ones
// relevant to the coupon type are kept. Absent optional values get their
// defaults: buy and get quantities 1, get percentages 100, flash sale
// multiplier 1, loyalty max multiplier 2 and isActive true.
func DecodeCoupon(data []byte) (*coupon.Coupon, error) {
	return decodeCoupon(jx.DecodeBytes(data))
}

func decodeCoupon(d *jx.Decoder) (*coupon.Coupon, error) {
	var doc document
	if err := d.Obj(doc.decodeField); err != nil {
		return nil, errors.Wrap(err, "decode coupon")
	}
	return doc.build()
}

// DecodeCoupons parses a JSON array of coupon documents or a stream of
// whitespace separated documents (NDJSON).
func DecodeCoupons(r io.Reader) ([]*coupon.Coupon, error) {
	d := jx.Decode(r, 64*1024)

	if d.Next() == jx.Array {
		var out []*coupon.Coupon
		err := d.Arr(func(d *jx.Decoder) error {
			c, err := decodeCoupon(d)
			if err != nil {
				return errors.Wrapf(err, "element %d", len(out))
			}
			out = append(out, c)
			return nil
		})
		return out, err
	}

	var out []*coupon.Coupon
	for {
		switch tt := d.Next(); tt {
		case jx.Object:
			c, err := decodeCoupon(d)
			if err != nil {
				return nil, errors.Wrapf(err, "document %d", len(out)+1)
			}
			out = append(out, c)
		case jx.Invalid:
			return out, nil
		default:
			return nil, errors.Errorf("document %d: unexpected %s", len(out)+1, tt)
		}
	}
}

func (doc *document) decodeField(d *jx.Decoder, key string) error {
	var err error
	switch key {
	case "id":
		doc.c.ID, err = d.Str()
	case "code":
		doc.c.Code, err = d.Str()
	case "name":
		doc.c.Name, err = d.Str()
	case "description":
		if d.Next() == jx.Null {
			err = d.Null()
		} else {
			doc.c.Description, err = d.Str()
		}
	case "type":
		var s string
		s, err = d.Str()
		doc.typ = coupon.Type(s)
	case "discount":
		doc.c.Discount, err = decodeDiscount(d)
	case "conditions":
		err = doc.conditions.decode(d)
	case "priority":
		doc.c.Priority, err = d.Int()
	case "stackable":
		doc.c.Stackable, err = d.Bool()
	case "isActive":
		doc.active, err = ReadOptionalBool(d)
	case "startDate":
		var t *time.Time
		if t, err = ReadOptionalTime(d); t != nil {
			doc.c.StartDate = *t
		}
	case "endDate":
		var t *time.Time
		if t, err = ReadOptionalTime(d); t != nil {
			doc.c.EndDate = *t
		}
	case "currentUsage":
		doc.c.CurrentUsage, err = d.Int()
	case "tieredRules":
		doc.tiers, err = decodeTieredRules(d)
	case "flashSaleData":
		doc.flashSale, err = decodeFlashSale(d)
	case "userCriteria":
		doc.criteria, err = decodeUserCriteria(d)
	default:
		err = d.Skip()
	}
	if err != nil {
		return errors.Wrap(err, key)
	}
	return nil
}

func (doc *document) build() (*coupon.Coupon, error) {
	c := doc.c
	c.Code = coupon.NormalizeCode(c.Code)
	c.Active = doc.active == nil || *doc.active
	c.MaxTotalUsage = doc.conditions.maxTotalUsage

	cond := doc.conditions
	switch doc.typ {
	case coupon.TypeCartWise:
		c.Rule = coupon.CartWise{MinimumAmount: cond.minimumAmount}
	case coupon.TypeProductWise:
		c.Rule = coupon.ProductWise{
			ApplicableProducts:   cond.applicableProducts,
			ApplicableCategories: cond.applicableCategories,
			ApplicableBrands:     cond.applicableBrands,
		}
	case coupon.TypeBxGy:
		c.Rule = coupon.BxGy{
			BuyProducts:     cond.buyProducts,
			GetProducts:     cond.getProducts,
			RepetitionLimit: cond.repetitionLimit,
		}
	case coupon.TypeTiered:
		c.Rule = coupon.Tiered{Tiers: doc.tiers}
	case coupon.TypeFlashSale:
		fs := coupon.FlashSale{Multiplier: defaultMultiplier}
		if doc.flashSale != nil {
			fs = *doc.flashSale
		}
		fs.MinimumAmount = cond.minimumAmount
		c.Rule = fs
	case coupon.TypeUserSpecific:
		c.Rule = coupon.UserSpecific{MinimumAmount: cond.minimumAmount, Criteria: doc.criteria}
	case coupon.TypeGraduatedBxGy:
		c.Rule = coupon.GraduatedBxGy{
			BuyProducts:     cond.buyProducts,
			GetProducts:     cond.getProducts,
			Rules:           cond.graduatedRules,
			RepetitionLimit: cond.repetitionLimit,
		}
	case coupon.TypeCrossCategoryBxGy:
		c.Rule = coupon.CrossCategoryBxGy{
			BuyCategories:         cond.buyCategories,
			GetCategories:         cond.getCategories,
			BuyQuantity:           intOr(cond.buyQuantity, 1),
			GetQuantity:           intOr(cond.getQuantity, 1),
			GetDiscountPercentage: decimalOr(cond.getDiscountPercentage, defaultPercentage),
			RepetitionLimit:       cond.repetitionLimit,
		}
	default:
		return nil, &coupon.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown coupon type %q", doc.typ)}
	}
	return &c, nil
}

func decodeDiscount(d *jx.Decoder) (coupon.Discount, error) {
	var out coupon.Discount
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "type":
			var s string
			s, err = d.Str()
			out.Type = coupon.DiscountType(s)
		case "value":
			out.Value, err = ReadDecimal(d)
		case "maxDiscountAmount":
			out.MaxAmount, err = ReadOptionalDecimal(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return out, err
}

func (c *conditions) decode(d *jx.Decoder) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "minimumAmount":
			c.minimumAmount, err = ReadOptionalDecimal(d)
		case "applicableProducts":
			c.applicableProducts, err = ReadStrings(d)
		case "applicableCategories":
			c.applicableCategories, err = ReadStrings(d)
		case "applicableBrands":
			c.applicableBrands, err = ReadStrings(d)
		case "buyProducts":
			c.buyProducts, err = decodeProductQuantities(d)
		case "getProducts":
			c.getProducts, err = decodeProductQuantities(d)
		case "repetitionLimit":
			c.repetitionLimit, err = ReadOptionalInt(d)
		case "graduatedRules":
			c.graduatedRules, err = decodeGraduatedRules(d)
		case "buyCategories":
			c.buyCategories, err = ReadStrings(d)
		case "getCategories":
			c.getCategories, err = ReadStrings(d)
		case "buyQuantity":
			c.buyQuantity, err = ReadOptionalInt(d)
		case "getQuantity":
			c.getQuantity, err = ReadOptionalInt(d)
		case "getDiscountPercentage":
			c.getDiscountPercentage, err = ReadOptionalDecimal(d)
		case "maxTotalUsage":
			c.maxTotalUsage, err = ReadOptionalInt(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
}

func decodeProductQuantities(d *jx.Decoder) ([]coupon.ProductQuantity, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []coupon.ProductQuantity
	err := d.Arr(func(d *jx.Decoder) error {
		pq := coupon.ProductQuantity{Quantity: 1}
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				pq.ProductID, err = d.Str()
			case "quantity":
				pq.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		}); err != nil {
			return err
		}
		out = append(out, pq)
		return nil
	})
	return out, err
}

// decodeGraduatedRules tolerates a non-array value by yielding no rules.
func decodeGraduatedRules(d *jx.Decoder) ([]coupon.GraduatedRule, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}
	var out []coupon.GraduatedRule
	err := d.Arr(func(d *jx.Decoder) error {
		r := coupon.GraduatedRule{BuyQuantity: 1, GetQuantity: 1, DiscountPercentage: defaultPercentage}
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "name":
				r.Name, err = d.Str()
			case "buyQuantity":
				r.BuyQuantity, err = d.Int()
			case "getQuantity":
				r.GetQuantity, err = d.Int()
			case "discountPercentage":
				r.DiscountPercentage, err = ReadDecimal(d)
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		}); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// decodeTieredRules reads {"tiers": [...]}. A non-array tiers value yields
// no tiers.
func decodeTieredRules(d *jx.Decoder) ([]coupon.Tier, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []coupon.Tier
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "tiers" || d.Next() != jx.Array {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var t coupon.Tier
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "name":
					t.Name, err = d.Str()
				case "minimumAmount":
					t.MinimumAmount, err = ReadDecimal(d)
				case "discountType":
					var s string
					s, err = d.Str()
					t.DiscountType = coupon.DiscountType(s)
				case "discountValue":
					t.DiscountValue, err = ReadDecimal(d)
				case "maxDiscountAmount":
					t.MaxDiscountAmount, err = ReadOptionalDecimal(d)
				default:
					err = d.Skip()
				}
				if err != nil {
					return errors.Wrap(err, key)
				}
				return nil
			}); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "tiers")
	}
	return out, nil
}

func decodeFlashSale(d *jx.Decoder) (*coupon.FlashSale, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	fs := coupon.FlashSale{Multiplier: defaultMultiplier}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "discountMultiplier":
			var m *decimal.Decimal
			if m, err = ReadOptionalDecimal(d); m != nil {
				fs.Multiplier = *m
			}
		case "timeWindows":
			fs.Windows, err = decodeTimeWindows(d)
		case "startTime":
			fs.StartTime, err = ReadOptionalTime(d)
		case "endTime":
			fs.EndTime, err = ReadOptionalTime(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

func decodeTimeWindows(d *jx.Decoder) ([]coupon.TimeWindow, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}
	var out []coupon.TimeWindow
	err := d.Arr(func(d *jx.Decoder) error {
		var w coupon.TimeWindow
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "startHour":
				w.StartHour, err = d.Int()
			case "endHour":
				w.EndHour, err = d.Int()
			case "daysOfWeek":
				if d.Next() == jx.Null {
					return d.Null()
				}
				err = d.Arr(func(d *jx.Decoder) error {
					day, err := d.Int()
					if err != nil {
						return err
					}
					if day < 0 || day > 6 {
						return errors.Errorf("day of week %d out of range", day)
					}
					w.DaysOfWeek = append(w.DaysOfWeek, time.Weekday(day))
					return nil
				})
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		}); err != nil {
			return err
		}
		out = append(out, w)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "timeWindows")
	}
	return out, nil
}

func decodeUserCriteria(d *jx.Decoder) (*coupon.UserCriteria, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	uc := coupon.UserCriteria{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userType":
			if d.Next() == jx.Null {
				return d.Null()
			}
			uc.UserType, err = d.Str()
		case "isFirstTime":
			uc.IsFirstTime, err = ReadOptionalBool(d)
		case "loyaltyLevel":
			uc.LoyaltyLevel, err = ReadOptionalInt(d)
		case "minOrders":
			uc.MinOrders, err = ReadOptionalInt(d)
		case "maxOrders":
			uc.MaxOrders, err = ReadOptionalInt(d)
		case "registrationDays":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var r coupon.DayRange
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "min":
					r.Min, err = d.Int()
				case "max":
					r.Max, err = d.Int()
				default:
					err = d.Skip()
				}
				return err
			})
			uc.RegistrationDays = &r
		case "loyaltyMultiplier":
			uc.LoyaltyMultiplier, err = ReadOptionalDecimal(d)
		case "maxMultiplier":
			uc.MaxMultiplier, err = ReadOptionalDecimal(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if uc.MaxMultiplier == nil {
		m := defaultMaxMultiplier
		uc.MaxMultiplier = &m
	}
	return &uc, nil
}

// EncodeCoupon writes c in the same document shape DecodeCoupon reads.
func EncodeCoupon(e *jx.Encoder, c *coupon.Coupon) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("code", func(e *jx.Encoder) { e.Str(c.Code) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(c.Description) })
		e.Field("type", func(e *jx.Encoder) { e.Str(string(c.Type())) })
		e.Field("discount", func(e *jx.Encoder) { EncodeDiscount(e, c.Discount) })
		e.Field("conditions", func(e *jx.Encoder) { encodeConditions(e, c) })
		e.Field("priority", func(e *jx.Encoder) { e.Int(c.Priority) })
		e.Field("stackable", func(e *jx.Encoder) { e.Bool(c.Stackable) })
		e.Field("isActive", func(e *jx.Encoder) { e.Bool(c.Active) })
		e.Field("startDate", func(e *jx.Encoder) { WriteTime(e, c.StartDate) })
		e.Field("endDate", func(e *jx.Encoder) { WriteTime(e, c.EndDate) })
		e.Field("currentUsage", func(e *jx.Encoder) { e.Int(c.CurrentUsage) })

		switch r := c.Rule.(type) {
		case coupon.Tiered:
			e.Field("tieredRules", func(e *jx.Encoder) { encodeTiers(e, r.Tiers) })
		case coupon.FlashSale:
			e.Field("flashSaleData", func(e *jx.Encoder) { encodeFlashSale(e, r) })
		case coupon.UserSpecific:
			if r.Criteria != nil {
				e.Field("userCriteria", func(e *jx.Encoder) { encodeUserCriteria(e, r.Criteria) })
			}
		}
	})
}

// EncodeCouponBytes is EncodeCoupon into a fresh buffer.
func EncodeCouponBytes(c *coupon.Coupon) []byte {
	var e jx.Encoder
	EncodeCoupon(&e, c)
	return e.Bytes()
}

// EncodeDiscount writes the discount block of a coupon document.
func EncodeDiscount(e *jx.Encoder, d coupon.Discount) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(string(d.Type)) })
		e.Field("value", func(e *jx.Encoder) { WriteDecimal(e, d.Value) })
		if d.MaxAmount != nil {
			e.Field("maxDiscountAmount", func(e *jx.Encoder) { WriteDecimal(e, *d.MaxAmount) })
		}
	})
}

func optionalDecimalField(e *jx.Encoder, name string, v *decimal.Decimal) {
	if v != nil {
		e.Field(name, func(e *jx.Encoder) { WriteDecimal(e, *v) })
	}
}

func optionalIntField(e *jx.Encoder, name string, v *int) {
	if v != nil {
		e.Field(name, func(e *jx.Encoder) { e.Int(*v) })
	}
}

func encodeProductQuantities(e *jx.Encoder, pqs []coupon.ProductQuantity) {
	e.Arr(func(e *jx.Encoder) {
		for _, pq := range pqs {
			e.Obj(func(e *jx.Encoder) {
				e.Field("productId", func(e *jx.Encoder) { e.Str(pq.ProductID) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(pq.Quantity) })
			})
		}
	})
}

func encodeConditions(e *jx.Encoder, c *coupon.Coupon) {
	e.Obj(func(e *jx.Encoder) {
		optionalIntField(e, "maxTotalUsage", c.MaxTotalUsage)

		switch r := c.Rule.(type) {
		case coupon.CartWise:
			optionalDecimalField(e, "minimumAmount", r.MinimumAmount)
		case coupon.FlashSale:
			optionalDecimalField(e, "minimumAmount", r.MinimumAmount)
		case coupon.UserSpecific:
			optionalDecimalField(e, "minimumAmount", r.MinimumAmount)
		case coupon.ProductWise:
			e.Field("applicableProducts", func(e *jx.Encoder) { WriteStrings(e, r.ApplicableProducts) })
			e.Field("applicableCategories", func(e *jx.Encoder) { WriteStrings(e, r.ApplicableCategories) })
			e.Field("applicableBrands", func(e *jx.Encoder) { WriteStrings(e, r.ApplicableBrands) })
		case coupon.BxGy:
			e.Field("buyProducts", func(e *jx.Encoder) { encodeProductQuantities(e, r.BuyProducts) })
			e.Field("getProducts", func(e *jx.Encoder) { encodeProductQuantities(e, r.GetProducts) })
			optionalIntField(e, "repetitionLimit", r.RepetitionLimit)
		case coupon.GraduatedBxGy:
			e.Field("buyProducts", func(e *jx.Encoder) { encodeProductQuantities(e, r.BuyProducts) })
			e.Field("getProducts", func(e *jx.Encoder) { encodeProductQuantities(e, r.GetProducts) })
			e.Field("graduatedRules", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, g := range r.Rules {
						e.Obj(func(e *jx.Encoder) {
							if g.Name != "" {
								e.Field("name", func(e *jx.Encoder) { e.Str(g.Name) })
							}
							e.Field("buyQuantity", func(e *jx.Encoder) { e.Int(g.BuyQuantity) })
							e.Field("getQuantity", func(e *jx.Encoder) { e.Int(g.GetQuantity) })
							e.Field("discountPercentage", func(e *jx.Encoder) { WriteDecimal(e, g.DiscountPercentage) })
						})
					}
				})
			})
			optionalIntField(e, "repetitionLimit", r.RepetitionLimit)
		case coupon.CrossCategoryBxGy:
			e.Field("buyCategories", func(e *jx.Encoder) { WriteStrings(e, r.BuyCategories) })
			e.Field("getCategories", func(e *jx.Encoder) { WriteStrings(e, r.GetCategories) })
			e.Field("buyQuantity", func(e *jx.Encoder) { e.Int(r.BuyQuantity) })
			e.Field("getQuantity", func(e *jx.Encoder) { e.Int(r.GetQuantity) })
			e.Field("getDiscountPercentage", func(e *jx.Encoder) { WriteDecimal(e, r.GetDiscountPercentage) })
			optionalIntField(e, "repetitionLimit", r.RepetitionLimit)
		}
	})
}

func encodeTiers(e *jx.Encoder, tiers []coupon.Tier) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("tiers", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, t := range tiers {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(t.Label()) })
						e.Field("minimumAmount", func(e *jx.Encoder) { WriteDecimal(e, t.MinimumAmount) })
						e.Field("discountType", func(e *jx.Encoder) { e.Str(string(t.DiscountType)) })
						e.Field("discountValue", func(e *jx.Encoder) { WriteDecimal(e, t.DiscountValue) })
						optionalDecimalField(e, "maxDiscountAmount", t.MaxDiscountAmount)
					})
				}
			})
		})
	})
}

func encodeFlashSale(e *jx.Encoder, fs coupon.FlashSale) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("discountMultiplier", func(e *jx.Encoder) { WriteDecimal(e, fs.Multiplier) })
		e.Field("timeWindows", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, w := range fs.Windows {
					e.Obj(func(e *jx.Encoder) {
						e.Field("startHour", func(e *jx.Encoder) { e.Int(w.StartHour) })
						e.Field("endHour", func(e *jx.Encoder) { e.Int(w.EndHour) })
						if len(w.DaysOfWeek) > 0 {
							e.Field("daysOfWeek", func(e *jx.Encoder) {
								e.Arr(func(e *jx.Encoder) {
									for _, day := range w.DaysOfWeek {
										e.Int(int(day))
									}
								})
							})
						}
					})
				}
			})
		})
		if fs.StartTime != nil {
			e.Field("startTime", func(e *jx.Encoder) { WriteTime(e, *fs.StartTime) })
		}
		if fs.EndTime != nil {
			e.Field("endTime", func(e *jx.Encoder) { WriteTime(e, *fs.EndTime) })
		}
	})
}

func encodeUserCriteria(e *jx.Encoder, uc *coupon.UserCriteria) {
	e.Obj(func(e *jx.Encoder) {
		if uc.UserType != "" {
			e.Field("userType", func(e *jx.Encoder) { e.Str(uc.UserType) })
		}
		if uc.IsFirstTime != nil {
			e.Field("isFirstTime", func(e *jx.Encoder) { e.Bool(*uc.IsFirstTime) })
		}
		optionalIntField(e, "loyaltyLevel", uc.LoyaltyLevel)
		optionalIntField(e, "minOrders", uc.MinOrders)
		optionalIntField(e, "maxOrders", uc.MaxOrders)
		if r := uc.RegistrationDays; r != nil {
			e.Field("registrationDays", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("min", func(e *jx.Encoder) { e.Int(r.Min) })
					e.Field("max", func(e *jx.Encoder) { e.Int(r.Max) })
				})
			})
		}
		optionalDecimalField(e, "loyaltyMultiplier", uc.LoyaltyMultiplier)
		optionalDecimalField(e, "maxMultiplier", uc.MaxMultiplier)
	})
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func decimalOr(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}
