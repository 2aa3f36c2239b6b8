package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

// paymentSucceededStatus is the gateway's terminal status for a settled
// transaction on the verify endpoint.
const paymentSucceededStatus = "success"

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client wraps the Paystack transaction endpoints with centralized auth,
// logging, and error mapping. It carries no business logic: envelope status
// and payment status are surfaced as-is for the order engine to interpret.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	logger     *logger.Logger
}

// InitializeParams is the input to the transaction initialize endpoint.
// Amount is in the gateway's minor currency unit (kobo).
type InitializeParams struct {
	AmountMinorUnits int64
	Email            string
	CallbackURL      string
	Reference        string
}

// InitializeResult reports the gateway's answer to an initialize call.
// OK mirrors the envelope status field; AuthorizationURL is only set when
// OK is true.
type InitializeResult struct {
	OK               bool
	AuthorizationURL string
}

// VerifyResult reports the gateway's authoritative view of a transaction.
// OK mirrors the envelope status field; GatewayStatus carries the raw
// transaction status and Succeeded is true only for a settled payment.
type VerifyResult struct {
	OK            bool
	GatewayStatus string
	Succeeded     bool
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// NewClient validates the credentials and returns a gateway client.
func NewClient(cfg config.PaystackConfig, logg *logger.Logger) (*Client, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errSecretKeyRequired
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		secretKey:  secret,
		logger:     logg,
	}, nil
}

// Initialize registers a pending transaction with the gateway and returns
// the hosted payment page URL.
func (c *Client) Initialize(ctx context.Context, params InitializeParams) (*InitializeResult, error) {
	if params.AmountMinorUnits <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if params.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	body := map[string]any{
		"amount":       params.AmountMinorUnits,
		"email":        params.Email,
		"callback_url": params.CallbackURL,
		"reference":    params.Reference,
	}
	c.log(ctx, "request", "initialize_transaction", map[string]any{
		"reference": params.Reference,
		"amount":    params.AmountMinorUnits,
		"email":     params.Email,
	})

	env, err := c.post(ctx, "/transaction/initialize", body)
	if err != nil {
		c.log(ctx, "error", "initialize_transaction", map[string]any{"error": err.Error()})
		return nil, err
	}

	result := &InitializeResult{OK: env.Status}
	if env.Status {
		var data initializeData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode initialize payload")
		}
		result.AuthorizationURL = data.AuthorizationURL
	}
	c.log(ctx, "response", "initialize_transaction", map[string]any{
		"reference": params.Reference,
		"status":    env.Status,
	})
	return result, nil
}

// Verify queries the authoritative status of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	c.log(ctx, "request", "verify_transaction", map[string]any{"reference": reference})

	env, err := c.get(ctx, "/transaction/verify/"+url.PathEscape(reference))
	if err != nil {
		c.log(ctx, "error", "verify_transaction", map[string]any{"error": err.Error()})
		return nil, err
	}

	result := &VerifyResult{OK: env.Status}
	if env.Status {
		var data verifyData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode verify payload")
		}
		result.GatewayStatus = data.Status
		result.Succeeded = data.Status == paymentSucceededStatus
	}
	c.log(ctx, "response", "verify_transaction", map[string]any{
		"reference":      reference,
		"status":         env.Status,
		"gateway_status": result.GatewayStatus,
	})
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway rejected credentials")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment gateway error (%d)", resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway envelope")
	}
	return &env, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"gateway":   "paystack",
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("paystack %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("paystack %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"email", "card", "secret", "token", "authorization"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
