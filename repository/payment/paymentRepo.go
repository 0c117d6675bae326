package paymentrepo

type CreatePaymentReq struct {
	OrderID     string
	Amount      float64
	Currency    string
	CallbackURL string
	SuccessURL  string
	CancelURL   string
}

type CreatePaymentResp struct {
	PaymentID   string
	RedirectURL string
}

// Event is the provider's asynchronous status callback, already decoded.
type Event struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
}

type Repo interface {
	CreatePayment(req CreatePaymentReq) (*CreatePaymentResp, error)
	VerifyCallbackSignature(sigHeader string, rawBody []byte) error
}
