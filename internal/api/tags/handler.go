package tags

import (
	"net/http"

	"atelier-backend/database"
	"atelier-backend/internal/domain/catalog"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// ------------------------------
// POST /tag/add
// ------------------------------
func (h *Handler) Create(c *gin.Context) {
	var input struct {
		Name   string `json:"name" binding:"required,min=1,max=10"`
		Type   string `json:"type" binding:"required"`
		Enable *bool  `json:"enable" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name, type and enable flag are required, name must be 1-10 characters"})
		return
	}
	if !catalog.IsTagType(input.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please choose a valid type"})
		return
	}

	tag := catalog.Tag{Name: input.Name, Type: input.Type, Enable: *input.Enable}
	if err := h.DB.Create(&tag).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Tag already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Tag created", "tag": tag})
}

// ------------------------------
// GET /tag/all  (includes disabled)
// ------------------------------
func (h *Handler) GetAll(c *gin.Context) {
	var tags []catalog.Tag
	if err := h.DB.Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tag list fetched", "tags": tags})
}

// ------------------------------
// GET /tag/  (enabled only)
// ------------------------------
func (h *Handler) Get(c *gin.Context) {
	var tags []catalog.Tag
	if err := h.DB.Where("enable = ?", true).Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tag list fetched", "tags": tags})
}

// ------------------------------
// POST /tag/update  (bulk reconcile)
// ------------------------------
// The request body is the complete declared set of tags. Entries carrying an
// existing id are updated in place, entries without one are created, and
// stored tags absent from the declared set are deleted with their references
// cascade-removed from every work. Updates and creates run concurrently, then
// deletions run concurrently; each sub-operation runs to completion on its
// own, and the batch reports a single aggregate status.
func (h *Handler) Reconcile(c *gin.Context) {
	var declared []struct {
		ID     uint   `json:"id"`
		Name   string `json:"name" binding:"required,min=1,max=10"`
		Type   string `json:"type" binding:"required"`
		Enable *bool  `json:"enable" binding:"required"`
	}
	if err := c.ShouldBindJSON(&declared); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide an array of tags"})
		return
	}
	for _, entry := range declared {
		if !catalog.IsTagType(entry.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please choose a valid type"})
			return
		}
	}

	var existing []catalog.Tag
	if err := h.DB.Find(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	stored := make(map[uint]bool, len(existing))
	for _, tag := range existing {
		stored[tag.ID] = true
	}
	keep := make(map[uint]bool, len(declared))
	for _, entry := range declared {
		if stored[entry.ID] {
			keep[entry.ID] = true
		}
	}

	var upserts errgroup.Group
	for _, entry := range declared {
		entry := entry
		upserts.Go(func() error {
			if stored[entry.ID] {
				return h.DB.Model(&catalog.Tag{}).Where("id = ?", entry.ID).
					Updates(map[string]interface{}{
						"name":   entry.Name,
						"type":   entry.Type,
						"enable": *entry.Enable,
					}).Error
			}
			tag := catalog.Tag{Name: entry.Name, Type: entry.Type, Enable: *entry.Enable}
			return h.DB.Create(&tag).Error
		})
	}
	err := upserts.Wait()

	var deletions errgroup.Group
	for _, tag := range existing {
		if keep[tag.ID] {
			continue
		}
		id := tag.ID
		deletions.Go(func() error {
			return h.deleteWithCascade(id)
		})
	}
	if derr := deletions.Wait(); err == nil {
		err = derr
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tags updated, created or deleted"})
}

// deleteWithCascade removes the tag and then strips its reference from every
// work that held it. The cascade is an explicit application-level step so it
// stays visible and testable; both writes share one transaction.
func (h *Handler) deleteWithCascade(tagID uint) error {
	return h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&catalog.Tag{}, tagID).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM work_tags WHERE tag_id = ?", tagID).Error
	})
}
