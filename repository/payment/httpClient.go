package paymentrepo

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/util/httpx"
)

const baseURL = "https://api.onpay.io/v1"

type httpRepo struct {
	apiKey string
	client *http.Client
}

func NewHTTP(apiKey string) Repo {
	return &httpRepo{apiKey: apiKey, client: httpx.Client()}
}

func (r *httpRepo) CreatePayment(req CreatePaymentReq) (*CreatePaymentResp, error) {
	body := map[string]any{
		"order_id":     req.OrderID,
		"amount":       req.Amount,
		"currency":     req.Currency,
		"callback_url": req.CallbackURL,
		"accept_url":   req.SuccessURL,
		"decline_url":  req.CancelURL,
	}
	b, _ := json.Marshal(body)
	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/payments", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider create failed: %s", resp.Status)
	}

	var out struct {
		ID          string `json:"id"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("payment provider: empty payment id")
	}
	return &CreatePaymentResp{PaymentID: out.ID, RedirectURL: out.RedirectURL}, nil
}

// VerifyCallbackSignature checks the HMAC-SHA256 hex signature the provider
// sends with every callback.
func (r *httpRepo) VerifyCallbackSignature(sigHeader string, rawBody []byte) error {
	if sigHeader == "" {
		return errors.New("missing signature header")
	}
	mac := hmac.New(sha256.New, []byte(r.apiKey))
	mac.Write(rawBody)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(sigHeader)) {
		return errors.New("bad callback signature")
	}
	return nil
}
