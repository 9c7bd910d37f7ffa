package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cardforge/internal/card"
	"cardforge/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.Template{}, &database.Employee{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTemplateRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewTemplateHandler(database.NewTemplateStore(db), nil)

	r := gin.New()
	r.GET("/v1/templates", h.ListTemplates)
	r.POST("/v1/templates", h.SaveTemplate)
	r.GET("/v1/templates/:id", h.GetTemplate)
	return r, db
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validTemplateBody() map[string]any {
	return map[string]any{
		"id":         "tpl-1",
		"name":       "Staff Card",
		"layout":     "horizontal",
		"frontImage": "assets/background/front.png",
		"customFields": []map[string]any{
			{
				"id": "name", "name": "Name", "type": "text", "required": true,
				"side": "front", "position": map[string]float64{"x": 40, "y": 80},
			},
		},
	}
}

func TestSaveTemplate_PersistsAndFetches(t *testing.T) {
	r, _ := newTemplateRouter(t)

	w := postJSON(t, r, "/v1/templates", validTemplateBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/templates/tpl-1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var tpl card.Template
	if err := json.Unmarshal(w.Body.Bytes(), &tpl); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tpl.ID != "tpl-1" || tpl.Layout != card.LayoutHorizontal {
		t.Fatalf("unexpected template: %+v", tpl)
	}
	if f := tpl.FieldByID("name"); f == nil || !f.Required {
		t.Fatalf("field missing or mutated: %+v", f)
	}
}

func TestSaveTemplate_DuplicateFieldIDConflicts(t *testing.T) {
	r, _ := newTemplateRouter(t)

	body := validTemplateBody()
	fields := body["customFields"].([]map[string]any)
	dup := map[string]any{
		"id": "name", "name": "Name Again", "type": "date",
		"side": "back", "position": map[string]float64{"x": 0, "y": 0},
	}
	body["customFields"] = append(fields, dup)

	w := postJSON(t, r, "/v1/templates", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSaveTemplate_RejectsMissingFrontImage(t *testing.T) {
	r, _ := newTemplateRouter(t)

	body := validTemplateBody()
	body["frontImage"] = ""
	w := postJSON(t, r, "/v1/templates", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSaveTemplate_RejectsMalformedField(t *testing.T) {
	r, _ := newTemplateRouter(t)

	body := validTemplateBody()
	body["customFields"] = []map[string]any{
		{"id": "broken", "name": "Broken", "type": "text", "side": "front"},
	}
	w := postJSON(t, r, "/v1/templates", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	r, _ := newTemplateRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/templates/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestListTemplates(t *testing.T) {
	r, _ := newTemplateRouter(t)

	if w := postJSON(t, r, "/v1/templates", validTemplateBody()); w.Code != http.StatusCreated {
		t.Fatalf("seed template: %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/templates", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	var items []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0]["id"] != "tpl-1" {
		t.Fatalf("unexpected list: %v", items)
	}
}
