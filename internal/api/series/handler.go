package series

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
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid series ID"})
		return 0, false
	}
	return uint(id), true
}

// worksExist checks that every referenced work id resolves to a stored work.
func (h *Handler) worksExist(ids []uint) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int64
	if err := h.DB.Model(&catalog.Work{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return false, err
	}
	return count == int64(len(ids)), nil
}

// populateWorks resolves the ordered work-id list of each series to rows.
func (h *Handler) populateWorks(list []catalog.Series) (map[uint]catalog.Work, error) {
	ids := make([]uint, 0)
	for _, s := range list {
		ids = append(ids, s.WorkIDs...)
	}
	byID := make(map[uint]catalog.Work)
	if len(ids) == 0 {
		return byID, nil
	}

	var works []catalog.Work
	if err := h.DB.Preload("Tags").Where("id IN ?", ids).Find(&works).Error; err != nil {
		return nil, err
	}
	for _, w := range works {
		byID[w.ID] = w
	}
	return byID, nil
}

func seriesJSON(s catalog.Series, byID map[uint]catalog.Work) gin.H {
	works := make([]catalog.Work, 0, len(s.WorkIDs))
	for _, id := range s.WorkIDs {
		if w, ok := byID[id]; ok {
			works = append(works, w)
		}
	}
	return gin.H{
		"id":          s.ID,
		"name":        s.Name,
		"description": s.Description,
		"cover":       s.Cover,
		"works":       works,
		"post":        s.Post,
		"created_at":  s.CreatedAt,
		"updated_at":  s.UpdatedAt,
	}
}

// ------------------------------
// POST /series/add
// ------------------------------
func (h *Handler) Create(c *gin.Context) {
	var input struct {
		Name        string `form:"name" json:"name" binding:"required,min=1,max=10"`
		Description string `form:"description" json:"description" binding:"max=100"`
		WorkIDs     []uint `form:"work_ids" json:"work_ids"`
		Post        *bool  `form:"post" json:"post" binding:"required"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name and post flag are required, name must be 1-10 characters"})
		return
	}

	ok, err := h.worksExist(input.WorkIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "One or more works do not exist"})
		return
	}

	series := catalog.Series{
		Name:        input.Name,
		Description: input.Description,
		WorkIDs:     input.WorkIDs,
		Post:        *input.Post,
	}
	if series.WorkIDs == nil {
		series.WorkIDs = []uint{}
	}

	// Cover is optional on create; the first uploaded image becomes the cover.
	if uploads := middleware.UploadedImages(c); len(uploads) > 0 {
		series.Cover = uploads[0]
	}

	if err := h.DB.Create(&series).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Series already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Series created", "series": series})
}

// ------------------------------
// GET /series/all  (includes unposted, works populated)
// ------------------------------
func (h *Handler) GetAll(c *gin.Context) {
	var list []catalog.Series
	if err := h.DB.Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	byID, err := h.populateWorks(list)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, s := range list {
		out = append(out, seriesJSON(s, byID))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Series list fetched", "series": out})
}

// ------------------------------
// GET /series/  (posted only)
// ------------------------------
func (h *Handler) Get(c *gin.Context) {
	var list []catalog.Series
	if err := h.DB.Where("post = ?", true).Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Series list fetched", "series": list})
}

// ------------------------------
// GET /series/:id
// ------------------------------
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var series catalog.Series
	if err := h.DB.First(&series, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Series not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Series fetched", "series": series})
}

// ------------------------------
// PATCH /series/:id
// ------------------------------
// A deleted cover is destroyed remotely through the coordinator; a new upload
// replaces the cover without destroying the previous one unless its deletion
// was requested explicitly.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		Name         *string `form:"name" json:"name" binding:"omitempty,min=1,max=10"`
		Description  *string `form:"description" json:"description" binding:"omitempty,max=100"`
		WorkIDs      *[]uint `form:"work_ids" json:"work_ids"`
		Post         *bool   `form:"post" json:"post"`
		DeletedImage string  `form:"deleted_image" json:"deleted_image"`
		Folder       string  `form:"folder" json:"folder"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid series fields"})
		return
	}

	var series catalog.Series
	if err := h.DB.First(&series, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Series not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if input.WorkIDs != nil {
		ok, err := h.worksExist(*input.WorkIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "One or more works do not exist"})
			return
		}
		series.WorkIDs = *input.WorkIDs
	}

	if input.Name != nil {
		series.Name = *input.Name
	}
	if input.Description != nil {
		series.Description = *input.Description
	}
	if input.Post != nil {
		series.Post = *input.Post
	}

	existing := []string{}
	if series.Cover != "" {
		existing = append(existing, series.Cover)
	}
	var deletions []string
	if input.DeletedImage != "" {
		deletions = append(deletions, input.DeletedImage)
	}
	merged, changed := h.Assets.Merge(existing, deletions, middleware.UploadedImages(c), input.Folder)
	if changed {
		if len(merged) > 0 {
			series.Cover = merged[len(merged)-1]
		} else {
			series.Cover = ""
		}
	}

	if err := h.DB.Save(&series).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Series already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	byID, err := h.populateWorks([]catalog.Series{series})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Series updated", "series": seriesJSON(series, byID)})
}
