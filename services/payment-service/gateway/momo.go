package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/payment-service/config"
	"go.uber.org/zap"
)

const momoSuccessCode = "0"

type MomoGateway struct {
	cfg    config.MomoConfig
	client *http.Client
}

func NewMomoGateway(cfg config.MomoConfig) *MomoGateway {
	return &MomoGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *MomoGateway) Name() string { return "Momo" }

// CreateTransaction calls the Momo create API with a signed payload and
// returns the pay URL it responds with.
func (g *MomoGateway) CreateTransaction(ctx context.Context, orderID string, amount int, forceNew bool) (*Transaction, error) {
	transactionID := newTransactionID("MOMO", forceNew)
	requestID := fmt.Sprintf("REQ-%s-%d", orderID, time.Now().UnixMilli())

	extra, _ := json.Marshal(map[string]string{"orderId": orderID})
	payload := map[string]string{
		"partnerCode": g.cfg.PartnerCode,
		"accessKey":   g.cfg.AccessKey,
		"requestId":   requestID,
		"amount":      fmt.Sprintf("%d", amount),
		"orderId":     transactionID,
		"orderInfo":   fmt.Sprintf("Thanh toan don hang #%s", orderID),
		"redirectUrl": g.cfg.RedirectURL,
		"ipnUrl":      g.cfg.IPNURL,
		"extraData":   base64.StdEncoding.EncodeToString(extra),
		"requestType": "captureWallet",
	}
	payload["signature"] = signParams(stripSignature(payload), g.cfg.SecretKey, sha256.New)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternal("Error building Momo request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternal("Error building Momo request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstream("Momo create request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamStatus(resp.StatusCode, "Momo create rejected")
	}

	var out struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		PayURL     string `json:"payUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.NewUpstream("Momo create response unreadable", err)
	}
	if out.ResultCode != 0 {
		return nil, apperrors.NewUpstream(fmt.Sprintf("Momo error: %s", out.Message), nil)
	}

	logger.Info(ctx, "created Momo transaction",
		zap.String("transactionId", transactionID),
		zap.String("orderId", orderID),
	)

	return &Transaction{
		PaymentURL:    out.PayURL,
		TransactionID: transactionID,
	}, nil
}

// VerifyCallback recomputes the signature over every received parameter
// except the signature itself and fails closed on mismatch.
func (g *MomoGateway) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	received := params["signature"]
	if received == "" {
		return nil, apperrors.NewAuthentication("Missing signature")
	}

	expected := signParams(stripSignature(params), g.cfg.SecretKey, sha256.New)
	if !equalSignatures(received, expected) {
		return nil, apperrors.NewAuthentication("Invalid signature")
	}

	code := params["resultCode"]
	return &CallbackResult{
		TransactionID: params["orderId"],
		Success:       code == momoSuccessCode,
		ResultCode:    code,
	}, nil
}

// Refund calls the Momo refund API; any non-success outcome surfaces as an
// upstream error so no local state is changed on ambiguous failure.
func (g *MomoGateway) Refund(ctx context.Context, transactionID string, amount int) error {
	requestID := fmt.Sprintf("RFD-%d", time.Now().UnixMilli())
	payload := map[string]string{
		"partnerCode": g.cfg.PartnerCode,
		"accessKey":   g.cfg.AccessKey,
		"requestId":   requestID,
		"amount":      fmt.Sprintf("%d", amount),
		"orderId":     transactionID,
		"transId":     transactionID,
		"description": fmt.Sprintf("Hoan tien giao dich %s", transactionID),
	}
	payload["signature"] = signParams(stripSignature(payload), g.cfg.SecretKey, sha256.New)

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewInternal("Error building Momo refund request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.RefundURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewInternal("Error building Momo refund request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.NewUpstream("Momo refund request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewUpstreamStatus(resp.StatusCode, "Momo refund rejected")
	}

	var out struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return apperrors.NewUpstream("Momo refund response unreadable", err)
	}
	if out.ResultCode != 0 {
		return apperrors.NewUpstream(fmt.Sprintf("Momo refund failed: %s", out.Message), nil)
	}

	logger.Info(ctx, "Momo refund accepted", zap.String("transactionId", transactionID))
	return nil
}

func stripSignature(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if k == "signature" {
			continue
		}
		out[k] = v
	}
	return out
}
