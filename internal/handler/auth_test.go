package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facecounter/internal/config"
	"facecounter/internal/logger"
	"facecounter/internal/middleware"
)

func postForm(h http.HandlerFunc, password string) *httptest.ResponseRecorder {
	form := url.Values{"password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestLoginHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Password = "secret"
	h := LoginHandler(cfg, logger.NewNop())

	rec := postForm(h, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = postForm(h, "secret")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AuthCookie, cookies[0].Name)
	assert.Equal(t, "true", cookies[0].Value)

	rec = get(t, h, "/auth/login")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLogoutHandler(t *testing.T) {
	rec := get(t, LogoutHandler, "/auth/logout")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	l, err := logger.New(dir, false)
	require.NoError(t, err)
	defer l.Close()

	l.Warning("low disk")

	rec := get(t, ShowLogsHandler(l, logger.WarningFile), "/logs/warning")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "low disk")

	rec = get(t, ClearLogsHandler(l, logger.WarningFile), "/logs/warning/clear")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	data, err := os.ReadFile(filepath.Join(dir, logger.WarningFile))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestShowLogsHandler_Missing(t *testing.T) {
	l := logger.NewNop()
	rec := get(t, ShowLogsHandler(l, "info.log"), "/logs/info")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
