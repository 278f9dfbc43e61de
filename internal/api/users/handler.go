package users

import (
	"errors"
	"net/http"

	"atelier-backend/database"
	"atelier-backend/internal/app/http/middleware"
	"atelier-backend/internal/auth"
	"atelier-backend/internal/domain/catalog"
	"atelier-backend/internal/domain/users"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	DB       *gorm.DB
	Sessions *auth.Manager
}

func NewHandler(db *gorm.DB, sessions *auth.Manager) *Handler {
	return &Handler{DB: db, Sessions: sessions}
}

// ------------------------------
// POST /user
// ------------------------------
func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Account  string `json:"account" binding:"required,alphanum,min=4,max=20"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=4,max=20"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Account must be 4-20 alphanumeric characters, email must be valid and password must be 4-20 characters"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	user := users.User{
		Account:  input.Account,
		Email:    input.Email,
		Password: string(hashed),
		Role:     users.RoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": ""})
}

// ------------------------------
// POST /user/login
// ------------------------------
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Account  string `json:"account" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Account and password are required"})
		return
	}

	user, err := h.Sessions.Authenticate(input.Account, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not found"})
		case errors.Is(err, auth.ErrInvalidCredential):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		}
		return
	}

	token, err := h.Sessions.IssueSession(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user": gin.H{
			"account":    user.Account,
			"role":       user.Role,
			"cart_total": user.CartTotal(),
			"token":      token,
		},
	})
}

// ------------------------------
// GET /user/profile
// ------------------------------
func (h *Handler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"account":    user.Account,
			"role":       user.Role,
			"cart_total": user.CartTotal(),
		},
	})
}

// ------------------------------
// POST /user/refresh
// ------------------------------
func (h *Handler) Refresh(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	token, err := h.Sessions.RotateSession(user, middleware.CurrentToken(c))
	if err != nil {
		if errors.Is(err, auth.ErrSessionRevoked) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or revoked token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "token": token})
}

// ------------------------------
// POST /user/logout
// ------------------------------
func (h *Handler) Logout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	if err := h.Sessions.RevokeSession(user, middleware.CurrentToken(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": ""})
}

// ------------------------------
// GET /user/cart
// ------------------------------
func (h *Handler) GetCart(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	ids := make([]uint, 0, len(user.Cart))
	for _, item := range user.Cart {
		ids = append(ids, item.ProductID)
	}

	var products []catalog.Product
	if len(ids) > 0 {
		if err := h.DB.Where("id IN ?", ids).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}
	}
	byID := make(map[uint]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	cart := make([]gin.H, 0, len(user.Cart))
	for _, item := range user.Cart {
		line := gin.H{"product_id": item.ProductID, "quantity": item.Quantity}
		if p, ok := byID[item.ProductID]; ok {
			line["product"] = p
		}
		cart = append(cart, line)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "cart": cart, "cart_total": user.CartTotal()})
}

// ------------------------------
// PATCH /user/cart
// ------------------------------
// Quantity is a delta: positive values add, negative values subtract, and a
// line whose quantity drops to zero or below is removed.
func (h *Handler) UpdateCart(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var input struct {
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Product ID and quantity are required"})
		return
	}

	idx := -1
	for i, item := range user.Cart {
		if item.ProductID == input.ProductID {
			idx = i
			break
		}
	}

	if idx >= 0 {
		quantity := user.Cart[idx].Quantity + input.Quantity
		if quantity <= 0 {
			user.Cart = append(user.Cart[:idx], user.Cart[idx+1:]...)
		} else {
			user.Cart[idx].Quantity = quantity
		}
	} else {
		if input.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Quantity must be at least 1"})
			return
		}
		var product catalog.Product
		if err := h.DB.First(&product, input.ProductID).Error; err != nil {
			if database.IsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}
		if !product.Sell {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not listed"})
			return
		}
		user.Cart = append(user.Cart, users.CartItem{ProductID: input.ProductID, Quantity: input.Quantity})
	}

	// Updating through the model runs the cart field's JSON serializer.
	if err := h.DB.Model(user).Select("cart").Updates(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "cart_total": user.CartTotal()})
}
