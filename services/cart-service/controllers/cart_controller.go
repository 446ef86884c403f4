package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vietshop/backend/services/cart-service/models"
	"github.com/vietshop/backend/services/cart-service/services"
	apperrors "github.com/vietshop/backend/services/common/errors"
)

type CartController struct {
	cartService *services.CartService
}

func NewCartController(cartService *services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart handles GET /api/carts?userId=&sessionId=.
func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.cartService.GetActiveCart(c, c.Query("userId"), c.Query("sessionId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": cart})
}

type addItemRequest struct {
	UserID       string               `json:"userId"`
	SessionID    string               `json:"sessionId"`
	Item         models.CartItem      `json:"item" binding:"required"`
	CustomerInfo *models.CustomerInfo `json:"customerInfo"`
}

// AddItem handles POST /api/carts/add.
func (cc *CartController) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Item is required"))
		return
	}

	cart, err := cc.cartService.AddItem(c, services.AddItemInput{
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		Item:         req.Item,
		CustomerInfo: req.CustomerInfo,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": cart})
}

type updateStatusRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Status    string `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /api/carts/status.
func (cc *CartController) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidation("Status is required"))
		return
	}

	cart, err := cc.cartService.UpdateStatus(c, req.UserID, req.SessionID, req.Status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": cart})
}
