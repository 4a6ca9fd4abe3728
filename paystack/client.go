// Package paystack wraps the two Paystack transaction operations this
// backend uses and authenticates the webhooks Paystack sends back.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Metadata is the booking form attached at initialize time. Paystack echoes
// it back verbatim on verification and in webhook payloads, which is how the
// booking is rebuilt once payment is confirmed.
type Metadata struct {
	FullName          string `json:"fullName"`
	Company           string `json:"company"`
	Role              string `json:"role"`
	Phone             string `json:"phone"`
	Whatsapp          string `json:"whatsapp,omitempty"`
	Country           string `json:"country"`
	Location          string `json:"location"`
	Address           string `json:"address"`
	Mode              string `json:"mode"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Duration          string `json:"duration"`
	Cost              string `json:"cost"`
	ReferenceWebsites string `json:"referenceWebsites,omitempty"`
	ProjectDetails    string `json:"projectDetails,omitempty"`
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"` // minor currency units (kobo)
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Customer struct {
	Email string `json:"email"`
}

// TransactionData is the shared shape of verify responses and the `data`
// object of charge webhooks.
type TransactionData struct {
	ID        int64    `json:"id"`
	Status    string   `json:"status"`
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"` // minor currency units
	Currency  string   `json:"currency"`
	Customer  Customer `json:"customer"`
	Metadata  Metadata `json:"metadata"`
}

// Event is an inbound webhook body.
type Event struct {
	Event string          `json:"event"`
	Data  TransactionData `json:"data"`
}

// GatewayError is the uniform failure shape for anything that goes wrong
// talking to Paystack: transport errors, non-2xx responses, malformed bodies
// and status:false envelopes all end up here.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("paystack: %s (http %d)", e.Message, e.StatusCode)
	}
	return "paystack: " + e.Message
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		// an unbounded verify call would hang the payment redirect page
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Initialize creates a payment session and returns the URL the customer is
// redirected to plus the reference that correlates webhook and verify calls.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeData, error) {
	if req.Email == "" {
		return nil, &GatewayError{Message: "email and amount are required to initialize payment"}
	}
	if req.Amount <= 0 {
		return nil, &GatewayError{Message: "invalid amount value"}
	}

	var data InitializeData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Verify fetches the terminal state of a payment session.
func (c *Client) Verify(ctx context.Context, reference string) (*TransactionData, error) {
	if reference == "" {
		return nil, &GatewayError{Message: "transaction reference is required"}
	}

	var data TransactionData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &GatewayError{Message: "failed to encode request: " + err.Error()}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &GatewayError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Message: "invalid response from Paystack"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Status {
		msg := envelope.Message
		if msg == "" {
			msg = "request to Paystack failed"
		}
		return &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &GatewayError{StatusCode: resp.StatusCode, Message: "invalid response from Paystack"}
		}
	}
	return nil
}
