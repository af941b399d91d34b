package handler

import (
	"bytes"
	"encoding/json"

	"github.com/localkart/localkart-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	DOB      string `json:"dob" example:"1994-03-12"`
	Password string `json:"password"`
	Role     string `json:"role" enums:"client,provider"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

// --- Payment ---

type createOrderRequest struct {
	// Amount in major units, as a JSON number or numeric string.
	Amount json.RawMessage `json:"amount" swaggertype:"number" example:"499.99"`
}

// amountValue keeps the literal digits of a JSON number so no precision is
// lost before minor-unit conversion.
func (r createOrderRequest) amountValue() any {
	raw := bytes.TrimSpace(r.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		// Objects and booleans stay raw; ParseAmount rejects them.
		return r.Amount
	}
	return n
}

type createOrderResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderId"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	Key      string `json:"key"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type verifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
