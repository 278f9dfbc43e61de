package middleware

import (
	"io"
	"net/http"
	"strings"

	"atelier-backend/internal/assets"

	"github.com/gin-gonic/gin"
)

// Uploaded image references collected by UploadImages.
const CtxUploadedImages = "uploaded_images"

const (
	maxUploadFiles    = 5
	maxUploadFileSize = 5 << 20 // 5MB per file
)

// UploadImages pushes every file in the "images" multipart field to the asset
// store and stashes the returned references, in upload order, in the request
// context. Requests without a multipart body pass through untouched, so the
// same PATCH route accepts metadata-only updates.
func UploadImages(store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.ContentType(), "multipart/form-data") {
			c.Next()
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid multipart body"})
			return
		}

		files := form.File["images"]
		if len(files) > maxUploadFiles {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Too many files, at most 5 images per request"})
			return
		}

		folder := c.PostForm("folder")
		references := make([]string, 0, len(files))
		for _, file := range files {
			contentType := file.Header.Get("Content-Type")
			if contentType != "image/jpeg" && contentType != "image/png" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Upload failed, only JPEG and PNG files up to 5MB are accepted"})
				return
			}
			if file.Size > maxUploadFileSize {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Upload failed, only JPEG and PNG files up to 5MB are accepted"})
				return
			}

			src, err := file.Open()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Upload failed, could not read file"})
				return
			}
			data, err := io.ReadAll(io.LimitReader(src, maxUploadFileSize+1))
			_ = src.Close()
			if err != nil || int64(len(data)) > maxUploadFileSize {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Upload failed, could not read file"})
				return
			}

			reference, err := store.Upload(c.Request.Context(), data, contentType, folder)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Upload failed"})
				return
			}
			references = append(references, reference)
		}

		c.Set(CtxUploadedImages, references)
		c.Next()
	}
}

// UploadedImages returns the references collected by UploadImages for this
// request, in upload order.
func UploadedImages(c *gin.Context) []string {
	value, exists := c.Get(CtxUploadedImages)
	if !exists {
		return nil
	}
	references, ok := value.([]string)
	if !ok {
		return nil
	}
	return references
}
