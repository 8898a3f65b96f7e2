package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jmmlabs/holidayhome-backend/internal/products"
	"github.com/jmmlabs/holidayhome-backend/internal/services"
)

func newPurchaseRouter(purchase stubPurchaseSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(stubQuotaSvc{}, stubReferralSvc{}, purchase, stubImage{}, &products.Catalog{})
	r.POST("/generations/credit", h.CreditPurchase)
	return r
}

func TestCreditPurchase_Success(t *testing.T) {
	r := newPurchaseRouter(stubPurchaseSvc{
		credit: func(_ context.Context, deviceID, productID string, txns []string) (*services.CreditOutcome, error) {
			if deviceID != "dev-1" || productID != "holiday_basic_pack" || len(txns) != 2 {
				t.Fatalf("unexpected args %q %q %v", deviceID, productID, txns)
			}
			return &services.CreditOutcome{
				CreditedTransactions: 2,
				CreditedAmount:       20,
				GenerationsRemaining: 23,
				TotalGenerated:       0,
			}, nil
		},
	})

	w := postJSON(r, "/generations/credit",
		`{"deviceId":"dev-1","productId":"holiday_basic_pack","transactionIds":["t1","t2"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	// The store client decodes the exact camelCase keys.
	var resp map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["creditedTransactions"] != 2 || resp["creditedAmount"] != 20 || resp["generationsRemaining"] != 23 {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestCreditPurchase_ReplayReportsZeroCredited(t *testing.T) {
	r := newPurchaseRouter(stubPurchaseSvc{
		credit: func(context.Context, string, string, []string) (*services.CreditOutcome, error) {
			return &services.CreditOutcome{
				CreditedTransactions: 0,
				CreditedAmount:       0,
				GenerationsRemaining: 23,
				TotalGenerated:       0,
			}, nil
		},
	})

	w := postJSON(r, "/generations/credit",
		`{"deviceId":"dev-1","productId":"holiday_basic_pack","transactionIds":["t1","t2"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("replay status = %d; want 200", w.Code)
	}
	var resp CreditResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.CreditedTransactions != 0 || resp.CreditedAmount != 0 {
		t.Fatalf("replay should credit nothing: %+v", resp)
	}
}

func TestCreditPurchase_BindingErrors(t *testing.T) {
	r := newPurchaseRouter(stubPurchaseSvc{})
	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing product", `{"deviceId":"d","transactionIds":["t1"]}`},
		{"missing transactions", `{"deviceId":"d","productId":"holiday_basic_pack"}`},
		{"snake_case keys", `{"device_id":"d","product_id":"holiday_basic_pack","transaction_ids":["t1"]}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(r, "/generations/credit", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", w.Code)
			}
		})
	}
}

func TestCreditPurchase_ServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		wantHTTP int
		wantCode string
	}{
		{services.ErrInvalidDeviceID, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrUnsupportedProduct, http.StatusBadRequest, ErrCodeUnsupportedProduct},
		{services.ErrNoTransactions, http.StatusBadRequest, ErrCodeBadRequest},
		{errors.New("db down"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		r := newPurchaseRouter(stubPurchaseSvc{
			credit: func(context.Context, string, string, []string) (*services.CreditOutcome, error) {
				return nil, tc.err
			},
		})
		w := postJSON(r, "/generations/credit",
			`{"deviceId":"  ","productId":"holiday_basic_pack","transactionIds":["t1"]}`)
		if w.Code != tc.wantHTTP {
			t.Fatalf("err %v: status = %d; want %d", tc.err, w.Code, tc.wantHTTP)
		}
		var resp ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Code != tc.wantCode {
			t.Fatalf("err %v: code = %q; want %q", tc.err, resp.Code, tc.wantCode)
		}
	}
}
