package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/payment-service/config"
	"go.uber.org/zap"
)

const vnpaySuccessCode = "00"

type VNPayGateway struct {
	cfg    config.VNPayConfig
	client *http.Client
	now    func() time.Time
}

func NewVNPayGateway(cfg config.VNPayConfig) *VNPayGateway {
	return &VNPayGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (g *VNPayGateway) Name() string { return "VNPay" }

// CreateTransaction builds a signed pay URL. VNPay does not require a
// server-to-server call to initiate; the signed redirect URL is the
// transaction.
func (g *VNPayGateway) CreateTransaction(ctx context.Context, orderID string, amount int, forceNew bool) (*Transaction, error) {
	transactionID := newTransactionID("VNPAY", forceNew)

	params := map[string]string{
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.MerchantCode,
		"vnp_Amount":     strconv.Itoa(amount * 100), // VNPay wants amount in hundredths of VND
		"vnp_CreateDate": g.now().Format("20060102150405"),
		"vnp_CurrCode":   "VND",
		"vnp_IpAddr":     "127.0.0.1",
		"vnp_Locale":     "vn",
		"vnp_OrderInfo":  fmt.Sprintf("Thanh toan don hang #%s", orderID),
		"vnp_OrderType":  "billpayment",
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_TxnRef":     transactionID,
	}

	signature := signParams(params, g.cfg.HashSecret, sha512.New)
	params["vnp_SecureHash"] = signature

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	logger.Info(ctx, "created VNPay transaction",
		zap.String("transactionId", transactionID),
		zap.String("orderId", orderID),
	)

	return &Transaction{
		PaymentURL:    g.cfg.PayURL + "?" + query.Encode(),
		TransactionID: transactionID,
	}, nil
}

// VerifyCallback recomputes the secure hash over the received parameters,
// excluding the signature fields, and fails closed on mismatch.
func (g *VNPayGateway) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	received := params["vnp_SecureHash"]
	if received == "" {
		return nil, apperrors.NewAuthentication("Missing signature")
	}

	toSign := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" || k == "requestId" {
			continue
		}
		toSign[k] = v
	}

	expected := signParams(toSign, g.cfg.HashSecret, sha512.New)
	if !equalSignatures(received, expected) {
		return nil, apperrors.NewAuthentication("Invalid signature")
	}

	code := params["vnp_ResponseCode"]
	return &CallbackResult{
		TransactionID: params["vnp_TxnRef"],
		Success:       code == vnpaySuccessCode,
		ResultCode:    code,
	}, nil
}

// Refund issues a signed refund command against the merchant API. Any
// non-success response surfaces as an upstream error so the caller records
// no local state change.
func (g *VNPayGateway) Refund(ctx context.Context, transactionID string, amount int) error {
	params := map[string]string{
		"vnp_Version":         g.cfg.Version,
		"vnp_Command":         "refund",
		"vnp_TmnCode":         g.cfg.MerchantCode,
		"vnp_Amount":          strconv.Itoa(amount * 100),
		"vnp_TxnRef":          transactionID,
		"vnp_CreateDate":      g.now().Format("20060102150405"),
		"vnp_CreateBy":        "system",
		"vnp_OrderInfo":       fmt.Sprintf("Hoan tien giao dich %s", transactionID),
		"vnp_RequestId":       newTransactionID("RFD", false),
		"vnp_TransactionType": "02",
	}
	params["vnp_SecureHash"] = signParams(params, g.cfg.HashSecret, sha512.New)

	body, err := json.Marshal(params)
	if err != nil {
		return apperrors.NewInternal("Error building refund request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.RefundURL, strings.NewReader(string(body)))
	if err != nil {
		return apperrors.NewInternal("Error building refund request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.NewUpstream("VNPay refund request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewUpstreamStatus(resp.StatusCode, "VNPay refund rejected")
	}

	var out struct {
		ResponseCode string `json:"vnp_ResponseCode"`
		Message      string `json:"vnp_Message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return apperrors.NewUpstream("VNPay refund response unreadable", err)
	}
	if out.ResponseCode != vnpaySuccessCode {
		return apperrors.NewUpstream(fmt.Sprintf("VNPay refund failed: %s", out.Message), nil)
	}

	logger.Info(ctx, "VNPay refund accepted", zap.String("transactionId", transactionID))
	return nil
}

// newTransactionID embeds a millisecond timestamp plus randomness; forceNew
// widens the random space after a uniqueness collision.
func newTransactionID(prefix string, forceNew bool) string {
	space := int64(1000)
	if forceNew {
		space = 1000000
	}
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixMilli(), rand.Int63n(space))
}
