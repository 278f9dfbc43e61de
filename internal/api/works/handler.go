package works

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
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid work ID"})
		return 0, false
	}
	return uint(id), true
}

// loadTags resolves tag ids to rows, failing when any id does not exist so a
// work can never reference a missing tag.
func (h *Handler) loadTags(ids []uint) ([]catalog.Tag, bool) {
	if len(ids) == 0 {
		return []catalog.Tag{}, true
	}
	var tags []catalog.Tag
	if err := h.DB.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, false
	}
	if len(tags) != len(ids) {
		return nil, false
	}
	return tags, true
}

// ------------------------------
// POST /work/add
// ------------------------------
func (h *Handler) Create(c *gin.Context) {
	var input struct {
		Title    string `form:"title" json:"title" binding:"required,min=1,max=100"`
		Content  string `form:"content" json:"content" binding:"required,max=500"`
		Category string `form:"category" json:"category" binding:"required"`
		Tags     []uint `form:"tags" json:"tags"`
		Post     *bool  `form:"post" json:"post" binding:"required"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Title, content, category and post flag are required"})
		return
	}
	if !catalog.IsWorkCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please choose a valid category"})
		return
	}

	images := middleware.UploadedImages(c)
	if len(images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "At least one image is required"})
		return
	}

	tags, ok := h.loadTags(input.Tags)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "One or more tags do not exist"})
		return
	}

	work := catalog.Work{
		Title:    input.Title,
		Content:  input.Content,
		Category: input.Category,
		Tags:     tags,
		Post:     *input.Post,
		Images:   images,
		Likes:    []uint{},
	}

	if err := h.DB.Create(&work).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Work already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Work created", "work": work})
}

// ------------------------------
// GET /work/all  (includes unposted)
// ------------------------------
func (h *Handler) GetAll(c *gin.Context) {
	var works []catalog.Work
	if err := h.DB.Preload("Tags").Find(&works).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Work list fetched", "works": works})
}

// ------------------------------
// GET /work/  (posted only)
// ------------------------------
func (h *Handler) Get(c *gin.Context) {
	var works []catalog.Work
	if err := h.DB.Preload("Tags").Where("post = ?", true).Find(&works).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Work list fetched", "works": works})
}

// ------------------------------
// GET /work/:id
// ------------------------------
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var work catalog.Work
	if err := h.DB.Preload("Tags").First(&work, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Work not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	// Public view counts the visit. Lost increments under concurrent reads
	// are avoided by pushing the addition into the store.
	if err := h.DB.Model(&work).UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err == nil {
		work.Views++
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Work fetched", "work": work})
}

// ------------------------------
// POST /work/:id/like
// ------------------------------
func (h *Handler) ToggleLike(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	var work catalog.Work
	if err := h.DB.First(&work, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Work not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	liked := false
	if work.Liked(user.ID) {
		kept := work.Likes[:0]
		for _, uid := range work.Likes {
			if uid != user.ID {
				kept = append(kept, uid)
			}
		}
		work.Likes = kept
	} else {
		work.Likes = append(work.Likes, user.ID)
		liked = true
	}

	// Updating through the model runs the likes field's JSON serializer.
	if err := h.DB.Model(&work).Select("likes").Updates(&work).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "liked": liked, "likes": len(work.Likes)})
}

// ------------------------------
// PATCH /work/:id
// ------------------------------
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		Title         *string  `form:"title" json:"title" binding:"omitempty,min=1,max=100"`
		Content       *string  `form:"content" json:"content" binding:"omitempty,max=500"`
		Category      *string  `form:"category" json:"category"`
		Tags          *[]uint  `form:"tags" json:"tags"`
		Post          *bool    `form:"post" json:"post"`
		DeletedImages []string `form:"deleted_images" json:"deleted_images"`
		Folder        string   `form:"folder" json:"folder"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid work fields"})
		return
	}
	if input.Category != nil && !catalog.IsWorkCategory(*input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please choose a valid category"})
		return
	}

	var work catalog.Work
	if err := h.DB.First(&work, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Work not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	var replacementTags []catalog.Tag
	if input.Tags != nil {
		tags, ok := h.loadTags(*input.Tags)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "One or more tags do not exist"})
			return
		}
		replacementTags = tags
	}

	if input.Title != nil {
		work.Title = *input.Title
	}
	if input.Content != nil {
		work.Content = *input.Content
	}
	if input.Category != nil {
		work.Category = *input.Category
	}
	if input.Post != nil {
		work.Post = *input.Post
	}

	merged, changed := h.Assets.Merge(work.Images, input.DeletedImages, middleware.UploadedImages(c), input.Folder)
	if changed {
		work.Images = merged
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Save(&work).Error; err != nil {
			return err
		}
		if input.Tags != nil {
			if err := tx.Model(&work).Association("Tags").Replace(&replacementTags); err != nil {
				return err
			}
			work.Tags = replacementTags
		}
		return nil
	})
	if err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Work already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if work.Tags == nil {
		_ = h.DB.Model(&work).Association("Tags").Find(&work.Tags)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Work updated", "work": work})
}
