package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testTripayService(baseURL string) *TripayService {
	return &TripayService{
		MerchantCode: "T12345",
		APIKey:       "api-key",
		PrivateKey:   "private-key",
		BaseURL:      baseURL,
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

func hmacHex(key, payload string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestClosedPaymentSignature(t *testing.T) {
	svc := testTripayService("")

	// Amount is whole rupiah with no decimals in the signed payload.
	want := hmacHex("private-key", "T12345INV-00150000")
	if got := svc.ClosedPaymentSignature("INV-001", 50000); got != want {
		t.Errorf("ClosedPaymentSignature() = %q, want %q", got, want)
	}

	if svc.ClosedPaymentSignature("INV-001", 50000) == svc.ClosedPaymentSignature("INV-001", 50001) {
		t.Error("different amounts must produce different signatures")
	}
}

func TestOpenPaymentSignature(t *testing.T) {
	svc := testTripayService("")

	want := hmacHex("private-key", "T12345BRIVAOP-abc")
	if got := svc.OpenPaymentSignature("BRIVA", "OP-abc"); got != want {
		t.Errorf("OpenPaymentSignature() = %q, want %q", got, want)
	}
}

func TestCreateClosedTransaction(t *testing.T) {
	var received map[string]interface{}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/create" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "",
			"data": map[string]interface{}{
				"reference":    "T123456789",
				"checkout_url": "https://tripay.example/checkout/abc",
			},
		})
	}))
	defer server.Close()

	svc := testTripayService(server.URL)
	result, err := svc.CreateClosedTransaction(context.Background(), "INV-001", "BRIVA", 50000, "Budi", "budi@example.com")
	if err != nil {
		t.Fatalf("CreateClosedTransaction: %v", err)
	}

	if result.Reference != "T123456789" {
		t.Errorf("Reference = %q", result.Reference)
	}
	if result.CheckoutURL != "https://tripay.example/checkout/abc" {
		t.Errorf("CheckoutURL = %q", result.CheckoutURL)
	}
	if gotAuth != "Bearer api-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if received["merchant_ref"] != "INV-001" {
		t.Errorf("merchant_ref = %v", received["merchant_ref"])
	}
	if received["signature"] != svc.ClosedPaymentSignature("INV-001", 50000) {
		t.Error("request must carry the closed-payment signature")
	}
}

func TestCreateOpenPaymentFallsBackToPayURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/open-payment/create" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"reference": "OP-REF-1",
				"pay_url":   "https://tripay.example/pay/def",
			},
		})
	}))
	defer server.Close()

	svc := testTripayService(server.URL)
	result, err := svc.CreateOpenPayment(context.Background(), "QRIS", "OP-abc")
	if err != nil {
		t.Fatalf("CreateOpenPayment: %v", err)
	}
	if result.CheckoutURL != "https://tripay.example/pay/def" {
		t.Errorf("CheckoutURL = %q, want the pay_url fallback", result.CheckoutURL)
	}
}

func TestCreateTransactionAggregatorRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "invalid merchant",
		})
	}))
	defer server.Close()

	svc := testTripayService(server.URL)
	if _, err := svc.CreateClosedTransaction(context.Background(), "INV-001", "BRIVA", 50000, "Budi", "budi@example.com"); err == nil {
		t.Error("aggregator rejection must surface as an error")
	}
}
