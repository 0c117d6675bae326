package invoicerepo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/util/httpx"
)

type CreateInvoiceReq struct {
	OrderID       string
	Amount        float64
	Currency      string
	CustomerEmail string
}

type CreateInvoiceResp struct {
	InvoiceID  string
	InvoiceURL string
}

type Repo interface {
	CreateInvoice(req CreateInvoiceReq) (*CreateInvoiceResp, error)
}

const baseURL = "https://restapi.e-conomic.com"

type httpRepo struct {
	apiKey string
	client *http.Client
}

func NewHTTP(apiKey string) Repo {
	return &httpRepo{apiKey: apiKey, client: httpx.Client()}
}

func (r *httpRepo) CreateInvoice(req CreateInvoiceReq) (*CreateInvoiceResp, error) {
	body := map[string]any{
		"external_id":    req.OrderID,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"customer_email": req.CustomerEmail,
	}
	b, _ := json.Marshal(body)
	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/invoices/drafts", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-AppSecretToken", r.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invoice create failed: %s", resp.Status)
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("invoicing: empty invoice id")
	}
	return &CreateInvoiceResp{InvoiceID: out.ID, InvoiceURL: out.URL}, nil
}
