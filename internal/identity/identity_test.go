package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := JWTVerifier{Secret: []byte("s3cret"), Issuer: "ledger"}
	tok, err := v.Sign("u1", time.Minute)
	require.NoError(t, err)

	sub, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)

	other := JWTVerifier{Secret: []byte("other")}
	_, err = other.Verify(context.Background(), tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	wrongIssuer := JWTVerifier{Secret: []byte("s3cret"), Issuer: "someone-else"}
	_, err = wrongIssuer.Verify(context.Background(), tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTVerifier_Expired(t *testing.T) {
	v := JWTVerifier{Secret: []byte("s3cret")}
	tok, err := v.Sign("u1", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestRemoteVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/verify" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uid":"u42"}`))
	}))
	defer srv.Close()

	v := &RemoteVerifier{BaseURL: srv.URL + "/"}
	sub, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u42", sub)

	_, err = v.Verify(context.Background(), "bad")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := JWTVerifier{Secret: []byte("s3cret")}
	m := &Middleware{Verifier: v, Open: []string{"/api/hook"}}

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/api/me", func(c *gin.Context) {
		sub, _ := SubjectFromGin(c)
		c.String(http.StatusOK, sub)
	})
	r.GET("/api/hook", func(c *gin.Context) { c.String(http.StatusOK, "open") })
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	do := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do("/api/hook", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/api/me", "Bearer nope").Code)

	tok, err := v.Sign("u7", time.Minute)
	require.NoError(t, err)
	w := do("/api/me", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u7", w.Body.String())
}

func TestOperatorGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := JWTVerifier{Secret: []byte("s3cret")}
	r := gin.New()
	r.Use((&Middleware{Verifier: v}).Handler())
	admin := r.Group("/api/admin", (&OperatorGate{Subjects: []string{" ops-1 "}}).Handler())
	admin.POST("/run", func(c *gin.Context) { c.String(http.StatusOK, "ran") })

	do := func(sub string) int {
		tok, err := v.Sign(sub, time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/run", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do("ops-1"))
	assert.Equal(t, http.StatusForbidden, do("u1"))

	open := gin.New()
	open.POST("/api/admin/run", (&OperatorGate{Disabled: true}).Handler(), func(c *gin.Context) { c.String(http.StatusOK, "ran") })
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/run", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
