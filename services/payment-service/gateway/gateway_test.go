package gateway

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/payment-service/config"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func vnpayTestConfig() config.VNPayConfig {
	return config.VNPayConfig{
		MerchantCode: "TESTMC",
		HashSecret:   "vnpay-secret",
		Version:      "2.1.0",
		PayURL:       "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:    "https://shop.example.com/payment/result",
	}
}

func TestSignParams_SortsAndSkipsEmpty(t *testing.T) {
	a := signParams(map[string]string{"b": "2", "a": "1", "c": ""}, "s", sha256.New)
	b := signParams(map[string]string{"a": "1", "b": "2"}, "s", sha256.New)
	assert.Equal(t, a, b)
}

func TestVNPay_CreateTransaction_SignedURL(t *testing.T) {
	g := NewVNPayGateway(vnpayTestConfig())

	txn, err := g.CreateTransaction(context.Background(), "order-1", 230000, false)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(txn.TransactionID, "VNPAY-"))

	parsed, err := url.Parse(txn.PaymentURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "23000000", q.Get("vnp_Amount"))
	assert.Equal(t, txn.TransactionID, q.Get("vnp_TxnRef"))
	require.NotEmpty(t, q.Get("vnp_SecureHash"))

	// The URL must verify against the same canonicalization the callback
	// path uses.
	params := make(map[string]string)
	for k := range q {
		params[k] = q.Get(k)
	}
	params["vnp_ResponseCode"] = ""
	result, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.Equal(t, txn.TransactionID, result.TransactionID)
}

func TestVNPay_VerifyCallback_RoundTrip(t *testing.T) {
	g := NewVNPayGateway(vnpayTestConfig())

	params := map[string]string{
		"vnp_TxnRef":       "VNPAY-123-456",
		"vnp_ResponseCode": "00",
		"vnp_Amount":       "23000000",
		"vnp_TmnCode":      "TESTMC",
	}
	params["vnp_SecureHash"] = signParams(params, "vnpay-secret", sha512.New)

	result, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "VNPAY-123-456", result.TransactionID)
}

func TestVNPay_VerifyCallback_FailureCode(t *testing.T) {
	g := NewVNPayGateway(vnpayTestConfig())

	params := map[string]string{
		"vnp_TxnRef":       "VNPAY-123-456",
		"vnp_ResponseCode": "24",
	}
	params["vnp_SecureHash"] = signParams(params, "vnpay-secret", sha512.New)

	result, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "24", result.ResultCode)
}

func TestVNPay_VerifyCallback_Tampered(t *testing.T) {
	g := NewVNPayGateway(vnpayTestConfig())

	params := map[string]string{
		"vnp_TxnRef":       "VNPAY-123-456",
		"vnp_ResponseCode": "24",
	}
	params["vnp_SecureHash"] = signParams(params, "vnpay-secret", sha512.New)
	params["vnp_ResponseCode"] = "00" // flip failure to success

	_, err := g.VerifyCallback(params)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestVNPay_VerifyCallback_MissingSignature(t *testing.T) {
	g := NewVNPayGateway(vnpayTestConfig())

	_, err := g.VerifyCallback(map[string]string{"vnp_TxnRef": "x"})
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestVNPay_VerifyCallback_IgnoresRequestIDParam(t *testing.T) {
	g := NewVNPayGateway(vnpayTestConfig())

	params := map[string]string{
		"vnp_TxnRef":       "VNPAY-1-2",
		"vnp_ResponseCode": "00",
	}
	params["vnp_SecureHash"] = signParams(params, "vnpay-secret", sha512.New)
	params["requestId"] = "REQ-extra" // appended by our return URL, unsigned

	result, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func momoTestConfig(endpoint string) config.MomoConfig {
	return config.MomoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "access",
		SecretKey:   "momo-secret",
		APIEndpoint: endpoint,
		RedirectURL: "https://shop.example.com/payment/result",
		IPNURL:      "https://shop.example.com/api/payments/callback/momo",
	}
}

func TestMomo_CreateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resultCode":0,"message":"ok","payUrl":"https://pay.momo.vn/tx/1"}`))
	}))
	defer srv.Close()

	g := NewMomoGateway(momoTestConfig(srv.URL))

	txn, err := g.CreateTransaction(context.Background(), "order-1", 150000, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(txn.TransactionID, "MOMO-"))
	assert.Equal(t, "https://pay.momo.vn/tx/1", txn.PaymentURL)
}

func TestMomo_CreateTransaction_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resultCode":41,"message":"order exists"}`))
	}))
	defer srv.Close()

	g := NewMomoGateway(momoTestConfig(srv.URL))

	_, err := g.CreateTransaction(context.Background(), "order-1", 150000, false)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.CodeOf(err))
}

func TestMomo_VerifyCallback_RoundTrip(t *testing.T) {
	g := NewMomoGateway(momoTestConfig(""))

	params := map[string]string{
		"partnerCode": "MOMOTEST",
		"orderId":     "MOMO-123-456",
		"amount":      "150000",
		"resultCode":  "0",
		"message":     "Successful.",
	}
	params["signature"] = signParams(params, "momo-secret", sha256.New)

	result, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "MOMO-123-456", result.TransactionID)
}

func TestMomo_VerifyCallback_FailureCode(t *testing.T) {
	g := NewMomoGateway(momoTestConfig(""))

	params := map[string]string{
		"orderId":    "MOMO-123-456",
		"resultCode": "1006",
	}
	params["signature"] = signParams(params, "momo-secret", sha256.New)

	result, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestMomo_VerifyCallback_Tampered(t *testing.T) {
	g := NewMomoGateway(momoTestConfig(""))

	params := map[string]string{
		"orderId":    "MOMO-123-456",
		"resultCode": "1006",
	}
	params["signature"] = signParams(params, "momo-secret", sha256.New)
	params["resultCode"] = "0"

	_, err := g.VerifyCallback(params)
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestMomo_Refund_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resultCode":0,"message":"ok"}`))
	}))
	defer srv.Close()

	cfg := momoTestConfig("")
	cfg.RefundURL = srv.URL
	g := NewMomoGateway(cfg)

	assert.NoError(t, g.Refund(context.Background(), "MOMO-1-2", 150000))
}

func TestMomo_Refund_GatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resultCode":11,"message":"access denied"}`))
	}))
	defer srv.Close()

	cfg := momoTestConfig("")
	cfg.RefundURL = srv.URL
	g := NewMomoGateway(cfg)

	err := g.Refund(context.Background(), "MOMO-1-2", 150000)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.CodeOf(err))
}

func TestNewTransactionID_ForceNewWidensSpace(t *testing.T) {
	a := newTransactionID("VNPAY", false)
	b := newTransactionID("VNPAY", true)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "VNPAY-"))
}
