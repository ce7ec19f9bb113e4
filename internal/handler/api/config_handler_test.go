package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigHandler_Get(t *testing.T) {
	h := NewConfigHandler("https://proc.example", "https://paygate.novalnet.de", 90*time.Second)

	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, h.Get(e.NewContext(httptest.NewRequest(http.MethodGet, "/config", nil), rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"processorUrl":"https://proc.example","origin":"https://paygate.novalnet.de","attemptTimeoutMs":90000}`, rec.Body.String())
}
