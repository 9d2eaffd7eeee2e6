package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/millflow/internal/config"
)

func TestNewEcho_Health(t *testing.T) {
	cfg := config.Config{Observability: config.Observability{ServiceName: "millflow"}}
	e := NewEcho(cfg, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "millflow" {
		t.Errorf("service = %q, want millflow", body["service"])
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestNewEcho_RecoversAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e := NewEcho(config.Config{}, nil, zap.New(core))
	e.GET("/boom", func(echo.Context) error { panic("saw blade jammed") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	entries := logs.FilterMessage("http request failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["path"] != "/boom" {
		t.Errorf("entries = %+v", entries)
	}
}
