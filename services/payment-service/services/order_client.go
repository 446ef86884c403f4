package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/retry"
)

// OrderSnapshot is the order view the orchestrator needs from the order
// service.
type OrderSnapshot struct {
	ID            string `json:"id"`
	OrderNumber   string `json:"orderNumber"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	TotalAmount   int    `json:"totalAmount"`
	CustomerInfo  struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customerInfo"`
}

type OrderClient interface {
	GetOrder(ctx context.Context, orderID string) (*OrderSnapshot, error)
	// NotifyPaymentStatus is best-effort: callers log failures and move on.
	NotifyPaymentStatus(ctx context.Context, orderID, paymentStatus, note string) error
}

type HTTPOrderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPOrderClient(baseURL string) *HTTPOrderClient {
	return &HTTPOrderClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type orderEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *OrderSnapshot `json:"data"`
}

// GetOrder fetches the order, retrying transient transport failures.
func (c *HTTPOrderClient) GetOrder(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	var snapshot *OrderSnapshot

	policy := retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		IsRetryable: retry.IsTransient,
	}

	err := retry.Do(ctx, "order-fetch-"+orderID, policy, func(ctx context.Context) error {
		url := fmt.Sprintf("%s/api/orders/%s", c.baseURL, orderID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return apperrors.NewUpstream("order service request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return apperrors.NewNotFound("Order not found")
		}
		if resp.StatusCode != http.StatusOK {
			return apperrors.NewUpstreamStatus(resp.StatusCode, fmt.Sprintf("order service returned %d", resp.StatusCode))
		}

		var env orderEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return apperrors.NewUpstream("invalid order service response", err)
		}
		if !env.Success || env.Data == nil {
			return apperrors.NewNotFound("Order not found")
		}
		snapshot = env.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *HTTPOrderClient) NotifyPaymentStatus(ctx context.Context, orderID, paymentStatus, note string) error {
	payload := map[string]string{
		"paymentStatus": paymentStatus,
	}
	if note != "" {
		payload["note"] = note
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/orders/%s/payment-status", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstream("order service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewUpstreamStatus(resp.StatusCode, fmt.Sprintf("payment status update returned %d", resp.StatusCode))
	}
	return nil
}
