package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/vietshop/backend/services/common/errors"
)

// CartSnapshot is the active cart as returned by the cart service.
type CartSnapshot struct {
	Items        []CartItem `json:"items"`
	Subtotal     int        `json:"subtotal"`
	Discount     int        `json:"discount"`
	CustomerInfo struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customerInfo"`
}

type CartItem struct {
	ProductID string `json:"product"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

// CartClient is the interface the orchestrator needs from the cart service.
type CartClient interface {
	GetActiveCart(ctx context.Context, userID, sessionID string) (*CartSnapshot, error)
	MarkConverted(ctx context.Context, userID, sessionID string) error
}

// HTTPCartClient communicates with the cart service via HTTP
type HTTPCartClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPCartClient(baseURL string) *HTTPCartClient {
	return &HTTPCartClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type cartEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *CartSnapshot `json:"data"`
}

func (c *HTTPCartClient) GetActiveCart(ctx context.Context, userID, sessionID string) (*CartSnapshot, error) {
	url := fmt.Sprintf("%s/api/carts?userId=%s&sessionId=%s", c.baseURL, userID, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstream("cart service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFound("Active cart not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamStatus(resp.StatusCode, fmt.Sprintf("cart service returned %d", resp.StatusCode))
	}

	var env cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, apperrors.NewUpstream("invalid cart service response", err)
	}
	if !env.Success || env.Data == nil {
		return nil, apperrors.NewNotFound("Active cart not found")
	}
	return env.Data, nil
}

func (c *HTTPCartClient) MarkConverted(ctx context.Context, userID, sessionID string) error {
	payload := map[string]string{
		"userId":    userID,
		"sessionId": sessionID,
		"status":    "converted",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/carts/status", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstream("cart service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewUpstreamStatus(resp.StatusCode, fmt.Sprintf("cart status update returned %d", resp.StatusCode))
	}
	return nil
}
