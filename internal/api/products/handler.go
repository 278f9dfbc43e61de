package products

import (
	"net/http"
	"strconv"

	"atelier-backend/database"
	"atelier-backend/internal/app/http/middleware"
	"atelier-backend/internal/assets"
	"atelier-backend/internal/domain/catalog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB     *gorm.DB
	Assets *assets.Coordinator
}

func NewHandler(db *gorm.DB, coordinator *assets.Coordinator) *Handler {
	return &Handler{DB: db, Assets: coordinator}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product ID"})
		return 0, false
	}
	return uint(id), true
}

// ------------------------------
// POST /product/add
// ------------------------------
func (h *Handler) Create(c *gin.Context) {
	var input struct {
		Name        string `form:"name" json:"name" binding:"required,min=1,max=255"`
		Price       *int   `form:"price" json:"price" binding:"required,min=0"`
		Description string `form:"description" json:"description" binding:"max=500"`
		Category    string `form:"category" json:"category" binding:"required"`
		Sell        *bool  `form:"sell" json:"sell" binding:"required"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name, price, category and sell flag are required"})
		return
	}
	if !catalog.IsProductCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please choose a valid category"})
		return
	}

	product := catalog.Product{
		Name:        input.Name,
		Price:       *input.Price,
		Description: input.Description,
		Category:    input.Category,
		Sell:        *input.Sell,
		Images:      middleware.UploadedImages(c),
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := h.DB.Create(&product).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Product already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product created", "product": product})
}

// ------------------------------
// GET /product/all  (includes unlisted)
// ------------------------------
func (h *Handler) GetAll(c *gin.Context) {
	var products []catalog.Product
	if err := h.DB.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product list fetched", "products": products})
}

// ------------------------------
// GET /product/  (listed only)
// ------------------------------
func (h *Handler) Get(c *gin.Context) {
	var products []catalog.Product
	if err := h.DB.Where("sell = ?", true).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product list fetched", "products": products})
}

// ------------------------------
// GET /product/:id
// ------------------------------
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var product catalog.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product fetched", "product": product})
}

// ------------------------------
// PATCH /product/:id
// ------------------------------
// Partial update: only the provided fields change. Image removals and new
// uploads go through the lifecycle coordinator; when neither happened the
// stored image list is left untouched.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		Name          *string  `form:"name" json:"name" binding:"omitempty,min=1,max=255"`
		Price         *int     `form:"price" json:"price" binding:"omitempty,min=0"`
		Description   *string  `form:"description" json:"description" binding:"omitempty,max=500"`
		Category      *string  `form:"category" json:"category"`
		Sell          *bool    `form:"sell" json:"sell"`
		DeletedImages []string `form:"deleted_images" json:"deleted_images"`
		Folder        string   `form:"folder" json:"folder"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product fields"})
		return
	}
	if input.Category != nil && !catalog.IsProductCategory(*input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please choose a valid category"})
		return
	}

	var product catalog.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Sell != nil {
		product.Sell = *input.Sell
	}

	merged, changed := h.Assets.Merge(product.Images, input.DeletedImages, middleware.UploadedImages(c), input.Folder)
	if changed {
		product.Images = merged
	}

	if err := h.DB.Save(&product).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Product already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product updated", "product": product})
}
