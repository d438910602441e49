package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/auth"
	"github.com/giantgun/BareBtc/internal/observability"
)

type fakeRecorder struct {
	paths  []string
	status []int
}

func (f *fakeRecorder) ObserveHTTP(_ string, path string, status int, _ time.Duration) {
	f.paths = append(f.paths, path)
	f.status = append(f.status, status)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestObserveRecordsRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}
	r := gin.New()
	r.Use(RequestID(), Observe(observability.NewLogger("test"), rec))
	r.GET("/v1/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/items/42", nil))

	if len(rec.paths) != 1 || rec.paths[0] != "/v1/items/:id" || rec.status[0] != http.StatusTeapot {
		t.Fatalf("unexpected observation: %v %v", rec.paths, rec.status)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" {
		t.Fatalf("expected propagated id, got %q", w.Body.String())
	}
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	r := gin.New()
	r.POST("/tx", NewRateLimiter(0.001, 2).Handler(), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tx", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	r := gin.New()
	r.POST("/tx", NewRateLimiter(0, 1).Handler(), func(c *gin.Context) { c.Status(http.StatusAccepted) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tx", nil))
		if w.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", w.Code)
		}
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	jwt := auth.NewJWTManager("issuer", "aud", "secret")
	r := gin.New()
	r.GET("/admin", RequireAuth(jwt), RequireRole(auth.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	operator, _ := jwt.Mint("ops-1", auth.RoleOperator, auth.TokenTypeAccess, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+operator)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	admin, _ := jwt.Mint("admin-1", auth.RoleAdmin, auth.TokenTypeAccess, time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookieName, Value: admin})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestBodyLimit(16))
	r.POST("/tx", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		c.Status(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tx", strings.NewReader(`{"amount":"1"}`)))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 under limit, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tx", strings.NewReader(`{"amount":"1","padding":"xxxxxxxxxxxxxxxx"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 over limit, got %d", w.Code)
	}
}
