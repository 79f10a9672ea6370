//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func newCouponBody(code string) map[string]any {
	return map[string]any{
		"code":        code,
		"name":        "Integration coupon",
		"description": "Created by the integration suite",
		"type":        "cart_wise",
		"discount":    map[string]any{"type": "fixed_amount", "value": 5},
		"conditions":  map[string]any{"minimumAmount": 20},
		"startDate":   "2025-01-01T00:00:00Z",
		"endDate":     "2035-01-01T00:00:00Z",
	}
}

func TestCouponLifecycle(t *testing.T) {
	resp := doPost(t, "/api/coupons", newCouponBody("itest5"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[couponSummary](t, resp)
	if created.Code != "ITEST5" {
		t.Errorf("code: got %q, want normalized ITEST5", created.Code)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/coupons/"+created.ID {
		t.Errorf("location: got %q", loc)
	}

	dup := doPost(t, "/api/coupons", newCouponBody("ITEST5"))
	defer dup.Body.Close()
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", dup.StatusCode)
	}
	if body := decodeJSON[errorResponse](t, dup); body.Code != "DUPLICATE_ENTRY" {
		t.Errorf("duplicate code: got %q", body.Code)
	}

	get := doGet(t, "/api/coupons/"+created.ID)
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", get.StatusCode)
	}
	if got := decodeJSON[couponSummary](t, get); got.ID != created.ID {
		t.Errorf("get: got id %q, want %q", got.ID, created.ID)
	}

	del := doDelete(t, "/api/coupons/"+created.ID)
	defer del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("deactivate: expected 204, got %d", del.StatusCode)
	}

	active := doGet(t, "/api/coupons?active=true")
	defer active.Body.Close()
	for _, c := range decodeJSON[couponList](t, active).Coupons {
		if c.ID == created.ID {
			t.Error("deactivated coupon still listed as active")
		}
	}

	apply := doPost(t, "/api/apply-coupon/"+created.ID, keyboardCart())
	defer apply.Body.Close()
	if apply.StatusCode != http.StatusBadRequest {
		t.Fatalf("apply inactive: expected 400, got %d", apply.StatusCode)
	}
}

func TestCouponUpdate(t *testing.T) {
	create := func(code string) couponSummary {
		t.Helper()
		resp := doPost(t, "/api/coupons", newCouponBody(code))
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %s: expected 201, got %d", code, resp.StatusCode)
		}
		return decodeJSON[couponSummary](t, resp)
	}
	target := create("ITESTUPD")
	other := create("ITESTOTHER")

	body := newCouponBody("itestupd2")
	body["name"] = "Renamed coupon"
	resp := doPut(t, "/api/coupons/"+target.ID, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[couponSummary](t, resp)
	if updated.ID != target.ID || updated.Code != "ITESTUPD2" || updated.Name != "Renamed coupon" {
		t.Errorf("update: got %+v", updated)
	}

	search := doGet(t, "/api/coupons?search=itestupd2&type=cart_wise")
	defer search.Body.Close()
	if list := decodeJSON[couponList](t, search); list.Count != 1 || list.Coupons[0].ID != target.ID {
		t.Errorf("search: got %+v", list)
	}

	clash := doPut(t, "/api/coupons/"+target.ID, newCouponBody(other.Code))
	defer clash.Body.Close()
	if clash.StatusCode != http.StatusConflict {
		t.Fatalf("clash: expected 409, got %d", clash.StatusCode)
	}
	if got := decodeJSON[errorResponse](t, clash); got.Code != "DUPLICATE_ENTRY" {
		t.Errorf("clash code: got %q", got.Code)
	}

	missing := doPut(t, "/api/coupons/"+uuid.NewString(), newCouponBody("ITESTGHOST"))
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", missing.StatusCode)
	}
}

func TestCreateCoupon_Invalid(t *testing.T) {
	body := newCouponBody("ITESTBAD")
	body["discount"] = map[string]any{"type": "percentage", "value": 150}

	resp := doPost(t, "/api/coupons", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	got := decodeJSON[errorResponse](t, resp)
	if got.Code != "VALIDATION_ERROR" || got.Field != "discount.value" {
		t.Errorf("unexpected error: %+v", got)
	}
}
