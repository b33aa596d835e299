package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"savora-system/internal/database/models"
	"savora-system/internal/services/table"
)

func setupTableRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.DiningTable{}))

	handler := NewTableHTTPHandler(table.NewService(db))

	r := gin.New()
	r.POST("/tables", handler.Create)
	r.GET("/tables", handler.List)
	r.GET("/tables/:id", handler.Get)
	r.PATCH("/tables/:id/status", handler.UpdateStatus)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTableEndpoints(t *testing.T) {
	r := setupTableRouter(t)

	w := doJSON(t, r, http.MethodPost, "/tables", gin.H{
		"restaurant_id": 1,
		"table_number":  7,
		"capacity":      4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Table created successfully", resp.Message)
	require.NotNil(t, resp.Data)

	// duplicate number conflicts
	w = doJSON(t, r, http.MethodPost, "/tables", gin.H{
		"restaurant_id": 1,
		"table_number":  7,
		"capacity":      2,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)

	w = doJSON(t, r, http.MethodGet, "/tables?restaurant_id=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/tables/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/tables/1/status", gin.H{"status": "occupied"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/tables/1/status", gin.H{"status": "broken"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/tables", gin.H{"restaurant_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
