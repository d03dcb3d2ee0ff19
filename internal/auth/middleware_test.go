package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phone-availability/internal/config"

	"github.com/gin-gonic/gin"
)

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := testManager(t, config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Hour})
	tok, err := m.IssueAccessToken(time.Now(), "ops-1", "viewer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		op, err := Operator(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, op)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + tok, want: http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
		if tc.want == http.StatusOK && w.Body.String() != "ops-1" {
			t.Fatalf("%s: expected operator in context, got %q", tc.name, w.Body.String())
		}
	}
}
