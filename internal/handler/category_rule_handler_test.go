package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/database"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/repository"
)

func newRuleHandler(t *testing.T, changes *int) *CategoryRuleHandler {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "rules.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCategoryRuleHandler(repository.NewCategoryRuleRepository(db.DB), func() { *changes++ }, zap.NewNop())
}

func TestCategoryRuleLifecycle(t *testing.T) {
	changes := 0
	h := newRuleHandler(t, &changes)

	body, _ := json.Marshal(models.CreateCategoryRuleRequest{Name: []string{"Work", "Coding"}, Regex: "code"})
	rec := httptest.NewRecorder()
	h.CreateRule(rec, httptest.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.CategoryRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = httptest.NewRecorder()
	h.ListRules(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	var rules []models.CategoryRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Len(t, rules, 1)

	update, _ := json.Marshal(map[string]any{"regex": "code|vim"})
	rec = httptest.NewRecorder()
	h.UpdateRule(rec, httptest.NewRequest(http.MethodPut, "/api/v1/categories/update?id="+created.ID, bytes.NewReader(update)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.GetRule(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories?id="+created.ID, nil))
	var got models.CategoryRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "code|vim", got.Regex)

	rec = httptest.NewRecorder()
	h.DeleteRule(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/categories/delete?id="+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.GetRule(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories?id="+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 3, changes)
}

func TestCreateRuleValidation(t *testing.T) {
	changes := 0
	h := newRuleHandler(t, &changes)

	rec := httptest.NewRecorder()
	h.CreateRule(rec, httptest.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewReader([]byte(`{"name":[],"regex":"x"}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateRule(rec, httptest.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewReader([]byte(`{`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateRule(rec, httptest.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewReader([]byte(`{"name":["Work"],"regex":"(unclosed"}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"validation"`)
	assert.Zero(t, changes)
}
