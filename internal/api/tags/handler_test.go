package tags

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier-backend/internal/domain/catalog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&catalog.Tag{}, &catalog.Work{}))

	h := NewHandler(db)
	r := gin.New()
	r.POST("/tag/add", h.Create)
	r.GET("/tag/all", h.GetAll)
	r.GET("/tag", h.Get)
	r.POST("/tag/update", h.Reconcile)
	return r, db
}

func post(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := post(t, r, "/tag/add", gin.H{"name": "ink", "type": "illustration", "enable": true})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate name.
	w = post(t, r, "/tag/add", gin.H{"name": "ink", "type": "illustration", "enable": true})
	require.Equal(t, http.StatusConflict, w.Code)

	// Unknown type.
	w = post(t, r, "/tag/add", gin.H{"name": "x", "type": "nope", "enable": true})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Name over the limit.
	w = post(t, r, "/tag/add", gin.H{"name": "twelve chars", "type": "other", "enable": true})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEnabledOnly(t *testing.T) {
	r, db := newTestRouter(t)
	require.NoError(t, db.Create(&catalog.Tag{Name: "on", Type: "other", Enable: true}).Error)
	require.NoError(t, db.Create(&catalog.Tag{Name: "off", Type: "other", Enable: false}).Error)

	w := get(t, r, "/tag")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Tags []catalog.Tag `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Tags, 1)
	require.Equal(t, "on", out.Tags[0].Name)

	w = get(t, r, "/tag/all")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Tags, 2)
}

func TestReconcile(t *testing.T) {
	r, db := newTestRouter(t)

	kept := catalog.Tag{Name: "kept", Type: "digital", Enable: true}
	doomed := catalog.Tag{Name: "doomed", Type: "physical", Enable: true}
	require.NoError(t, db.Create(&kept).Error)
	require.NoError(t, db.Create(&doomed).Error)

	// Two works reference the doomed tag; one also holds the kept tag.
	w1 := catalog.Work{
		Title: "First", Content: "x", Category: "daily", Post: true,
		Images: []string{"a"}, Likes: []uint{}, Tags: []catalog.Tag{kept, doomed},
	}
	w2 := catalog.Work{
		Title: "Second", Content: "x", Category: "daily", Post: true,
		Images: []string{"b"}, Likes: []uint{}, Tags: []catalog.Tag{doomed},
	}
	require.NoError(t, db.Create(&w1).Error)
	require.NoError(t, db.Create(&w2).Error)

	resp := post(t, r, "/tag/update", []gin.H{
		{"id": kept.ID, "name": "renamed", "type": "diary", "enable": false},
		{"name": "fresh", "type": "other", "enable": true},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var tags []catalog.Tag
	require.NoError(t, db.Order("id").Find(&tags).Error)
	require.Len(t, tags, 2)
	require.Equal(t, "renamed", tags[0].Name)
	require.Equal(t, "diary", tags[0].Type)
	require.False(t, tags[0].Enable)
	require.Equal(t, "fresh", tags[1].Name)

	// The deleted tag's references are stripped from every work.
	var first, second catalog.Work
	require.NoError(t, db.Preload("Tags").First(&first, w1.ID).Error)
	require.NoError(t, db.Preload("Tags").First(&second, w2.ID).Error)
	require.Len(t, first.Tags, 1)
	require.Equal(t, kept.ID, first.Tags[0].ID)
	require.Empty(t, second.Tags)
}

func TestReconcileEmptySetDeletesAll(t *testing.T) {
	r, db := newTestRouter(t)
	require.NoError(t, db.Create(&catalog.Tag{Name: "a", Type: "other", Enable: true}).Error)
	require.NoError(t, db.Create(&catalog.Tag{Name: "b", Type: "other", Enable: true}).Error)

	resp := post(t, r, "/tag/update", []gin.H{})
	require.Equal(t, http.StatusOK, resp.Code)

	var count int64
	require.NoError(t, db.Model(&catalog.Tag{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestReconcileUnknownIDCreates(t *testing.T) {
	r, db := newTestRouter(t)

	// An id that matches no stored tag is treated as a create, not an update.
	resp := post(t, r, "/tag/update", []gin.H{
		{"id": 42, "name": "new", "type": "other", "enable": true},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var tags []catalog.Tag
	require.NoError(t, db.Find(&tags).Error)
	require.Len(t, tags, 1)
	require.Equal(t, "new", tags[0].Name)
	require.NotEqual(t, uint(42), tags[0].ID)
}

func TestReconcileRejectsInvalidEntry(t *testing.T) {
	r, db := newTestRouter(t)
	require.NoError(t, db.Create(&catalog.Tag{Name: "a", Type: "other", Enable: true}).Error)

	// A single bad entry rejects the whole batch before any write happens.
	resp := post(t, r, "/tag/update", []gin.H{
		{"name": "ok", "type": "other", "enable": true},
		{"name": "bad", "type": "nope", "enable": true},
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var count int64
	require.NoError(t, db.Model(&catalog.Tag{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
