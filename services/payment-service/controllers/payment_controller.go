package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/payment-service/services"
)

type PaymentController struct {
	paymentService *services.PaymentService
}

func NewPaymentController(paymentService *services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

type createPaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Amount  int    `json:"amount" binding:"required"`
}

// CreatePayment handles POST /api/payments (offline, cash on delivery).
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Order ID and amount are required"))
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Invalid order ID"))
		return
	}

	payment, err := pc.paymentService.CreateOfflinePayment(c, orderID, req.Amount)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Payment created successfully",
		"data":    payment,
	})
}

type createOnlinePaymentRequest struct {
	OrderID       string `json:"orderId" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

// CreateOnlinePayment handles POST /api/payments/online.
func (pc *PaymentController) CreateOnlinePayment(c *gin.Context) {
	var req createOnlinePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Order ID and payment method are required"))
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Invalid order ID"))
		return
	}

	result, err := pc.paymentService.CreateOnlinePayment(c, orderID, req.PaymentMethod)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// HandleVNPayCallback handles GET /api/payments/callback/vnpay. VNPay sends
// the signed result as query parameters.
func (pc *PaymentController) HandleVNPayCallback(c *gin.Context) {
	params := flattenQuery(c)

	outcome, err := pc.paymentService.HandleCallback(c, "VNPay", params)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment " + outcome.Status,
		"data":    outcome,
	})
}

// HandleMomoCallback handles GET and POST /api/payments/callback/momo. The
// IPN arrives as a POST body; the shopper redirect carries query params.
func (pc *PaymentController) HandleMomoCallback(c *gin.Context) {
	var params map[string]string
	if c.Request.Method == http.MethodPost {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			apperrors.Respond(c, apperrors.NewValidation("Invalid callback body"))
			return
		}
		params = flattenJSON(body)
	} else {
		params = flattenQuery(c)
	}

	outcome, err := pc.paymentService.HandleCallback(c, "Momo", params)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment " + outcome.Status,
		"data":    outcome,
	})
}

// GetPaymentByTransaction handles GET /api/payments/transaction/:transactionId.
func (pc *PaymentController) GetPaymentByTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		apperrors.Respond(c, apperrors.NewValidation("Transaction ID is required"))
		return
	}

	payment, err := pc.paymentService.GetPaymentByTransaction(c, transactionID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}

type refundRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

// RefundPayment handles POST /api/payments/refund (admin).
func (pc *PaymentController) RefundPayment(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Order ID and reason are required"))
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Invalid order ID"))
		return
	}

	var actorID *uuid.UUID
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			actorID = &id
		}
	}

	payment, err := pc.paymentService.RefundPayment(c, services.RefundInput{
		OrderID: orderID,
		Reason:  req.Reason,
		ActorID: actorID,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Refund processed successfully",
		"data": gin.H{
			"transactionId": payment.TransactionID,
			"refundTime":    payment.RefundedAt,
		},
	})
}

func flattenQuery(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

// flattenJSON stringifies scalar values the way they appear on the wire so
// signature verification sees the same representation the gateway signed.
func flattenJSON(body map[string]interface{}) map[string]string {
	params := make(map[string]string, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case string:
			params[k] = val
		case float64:
			params[k] = trimFloat(val)
		case bool:
			if val {
				params[k] = "true"
			} else {
				params[k] = "false"
			}
		}
	}
	return params
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
