package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"canvango_backend/internal/config"
)

// TripayService talks to the payment aggregator: request signatures,
// transaction creation, open payment registration.
type TripayService struct {
	MerchantCode string
	APIKey       string
	PrivateKey   string
	BaseURL      string

	client *http.Client
}

func NewTripayService(cfg *config.Config) *TripayService {
	return &TripayService{
		MerchantCode: cfg.Tripay.MerchantCode,
		APIKey:       cfg.Tripay.APIKey,
		PrivateKey:   cfg.Tripay.PrivateKey,
		BaseURL:      cfg.Tripay.BaseURL,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

// ClosedPaymentSignature signs a closed-transaction create request:
// HMAC-SHA256(merchantCode + merchantRef + amount) under the private key.
// Amounts are whole rupiah, serialized without decimals.
func (s *TripayService) ClosedPaymentSignature(merchantRef string, amount float64) string {
	payload := fmt.Sprintf("%s%s%.0f", s.MerchantCode, merchantRef, amount)
	return s.sign(payload)
}

// OpenPaymentSignature signs an open-payment registration:
// HMAC-SHA256(merchantCode + channel + merchantRef).
func (s *TripayService) OpenPaymentSignature(channel, merchantRef string) string {
	payload := fmt.Sprintf("%s%s%s", s.MerchantCode, channel, merchantRef)
	return s.sign(payload)
}

func (s *TripayService) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(s.PrivateKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateTransactionResult is the subset of the aggregator response the
// gateway persists.
type CreateTransactionResult struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
	PayURL      string `json:"pay_url"`
}

type tripayEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateClosedTransaction creates a Tripay transaction for a pre-existing
// internal transaction identified by merchantRef.
func (s *TripayService) CreateClosedTransaction(ctx context.Context, merchantRef, method string, amount float64, customerName, customerEmail string) (*CreateTransactionResult, error) {
	body := map[string]interface{}{
		"method":         method,
		"merchant_ref":   merchantRef,
		"amount":         amount,
		"customer_name":  customerName,
		"customer_email": customerEmail,
		"signature":      s.ClosedPaymentSignature(merchantRef, amount),
	}
	return s.post(ctx, "/transaction/create", body)
}

// CreateOpenPayment registers an open payment intent on the given channel.
func (s *TripayService) CreateOpenPayment(ctx context.Context, channel, merchantRef string) (*CreateTransactionResult, error) {
	body := map[string]interface{}{
		"method":       channel,
		"merchant_ref": merchantRef,
		"signature":    s.OpenPaymentSignature(channel, merchantRef),
	}
	return s.post(ctx, "/open-payment/create", body)
}

func (s *TripayService) post(ctx context.Context, path string, body map[string]interface{}) (*CreateTransactionResult, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tripay request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope tripayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode tripay response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("tripay rejected request: %s", envelope.Message)
	}

	var result CreateTransactionResult
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, fmt.Errorf("decode tripay response data: %w", err)
	}
	if result.CheckoutURL == "" {
		result.CheckoutURL = result.PayURL
	}
	return &result, nil
}
