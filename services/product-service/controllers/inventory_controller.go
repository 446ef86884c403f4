package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/product-service/models"
	"github.com/vietshop/backend/services/product-service/repository"
	"github.com/vietshop/backend/services/product-service/services"
)

type InventoryController struct {
	inventoryService *services.InventoryService
}

func NewInventoryController(inventoryService *services.InventoryService) *InventoryController {
	return &InventoryController{inventoryService: inventoryService}
}

// RestoreForRefund handles POST /api/inventory/restore/refund/:orderId.
func (ic *InventoryController) RestoreForRefund(c *gin.Context) {
	ic.restore(c, services.CauseRefund)
}

// RestoreForCancel handles POST /api/inventory/restore/cancel/:orderId.
func (ic *InventoryController) RestoreForCancel(c *gin.Context) {
	ic.restore(c, services.CauseCancel)
}

func (ic *InventoryController) restore(c *gin.Context, cause services.RestoreCause) {
	orderID := c.Param("orderId")
	if orderID == "" {
		apperrors.Respond(c, apperrors.NewValidation("Order ID is required"))
		return
	}

	result, err := ic.inventoryService.RestoreInventory(c, orderID, cause)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetHistory handles GET /api/inventory/history/:productId.
func (ic *InventoryController) GetHistory(c *gin.Context) {
	q := repository.HistoryQuery{
		ProductID: c.Param("productId"),
		Source:    c.Query("source"),
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 20),
	}

	var ok bool
	if q.FromDate, ok = dateQuery(c, "fromDate"); !ok {
		return
	}
	if q.ToDate, ok = dateQuery(c, "toDate"); !ok {
		return
	}

	entries, total, err := ic.inventoryService.GetHistory(c, q)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"pagination": gin.H{
			"page":         q.Page,
			"limit":        q.Limit,
			"totalEntries": total,
		},
	})
}

// GetStats handles GET /api/inventory/stats.
func (ic *InventoryController) GetStats(c *gin.Context) {
	q := repository.StatsQuery{
		GroupBy: c.DefaultQuery("groupBy", "day"),
	}

	var ok bool
	if q.FromDate, ok = dateQuery(c, "startDate"); !ok {
		return
	}
	if q.ToDate, ok = dateQuery(c, "endDate"); !ok {
		return
	}

	buckets, err := ic.inventoryService.GetStats(c, q)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": buckets})
}

type adjustStockRequest struct {
	Quantity *int   `json:"quantity" binding:"required"`
	Note     string `json:"note"`
}

// AdjustStock handles PUT /api/inventory/:productId (admin).
func (ic *InventoryController) AdjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Quantity is required"))
		return
	}

	product, err := ic.inventoryService.AdjustStock(c, c.Param("productId"), *req.Quantity, c.GetHeader("X-User-ID"), req.Note)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

type createProductRequest struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// CreateProduct handles POST /api/products.
func (ic *InventoryController) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Product ID and name are required"))
		return
	}

	product, err := ic.inventoryService.CreateProduct(c, &models.Product{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": product})
}

// GetProduct handles GET /api/products/:productId.
func (ic *InventoryController) GetProduct(c *gin.Context) {
	product, err := ic.inventoryService.GetProduct(c, c.Param("productId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func dateQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Invalid "+key+", expected YYYY-MM-DD"))
		return nil, false
	}
	return &t, true
}
