package codec

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-promotions/internal/domain/product"
)

// DecodeProducts parses a JSON array of product documents.
func DecodeProducts(r io.Reader) ([]product.Product, error) {
	d := jx.Decode(r, 32*1024)

	var out []product.Product
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product %d", len(out))
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	p := product.Product{Active: true}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "brand":
			if d.Next() == jx.Null {
				return d.Null()
			}
			p.Brand, err = d.Str()
		case "sku":
			p.SKU, err = d.Str()
		case "price":
			p.Price, err = ReadDecimal(d)
		case "stock":
			p.Stock, err = d.Int()
		case "isActive":
			p.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return p, err
}

// EncodeProduct writes p in the document shape DecodeProducts reads.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
		e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		e.Field("price", func(e *jx.Encoder) { WriteMoney(e, p.Price) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("isActive", func(e *jx.Encoder) { e.Bool(p.Active) })
	})
}
