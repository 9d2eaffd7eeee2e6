package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Additional-Code/millflow/internal/entity"
)

func writeRates(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rates: %v", err)
	}
	return path
}

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Messaging.Kafka.Topic != "production.events" {
		t.Errorf("Kafka.Topic = %q, want production.events", cfg.Messaging.Kafka.Topic)
	}
	if cfg.Notify.Driver != "log" {
		t.Errorf("Notify.Driver = %q, want log", cfg.Notify.Driver)
	}
	if cfg.Production.SplitPrefixSeparator != "-" {
		t.Errorf("SplitPrefixSeparator = %q, want -", cfg.Production.SplitPrefixSeparator)
	}
	if cfg.Database.ReaderDSN != cfg.Database.WriterDSN {
		t.Errorf("ReaderDSN = %q, want writer DSN", cfg.Database.ReaderDSN)
	}
	if len(cfg.Production.UnitRates) != 0 {
		t.Errorf("UnitRates = %v, want empty", cfg.Production.UnitRates)
	}
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("WORKER_CONCURRENCY", "0")
	t.Setenv("OBS_LOG_LEVEL", " DEBUG ")
	t.Setenv("OBS_PROMETHEUS_PATH", "metrics")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("CACHE_DEFAULT_TTL", "30s")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"http port", cfg.HTTP.Port, 9000},
		{"cache driver", cfg.Cache.Driver, "noop"},
		{"messaging driver", cfg.Messaging.Driver, "noop"},
		{"worker concurrency", cfg.Messaging.Workers.Concurrency, 1},
		{"log level", cfg.Observability.LogLevel, "debug"},
		{"prometheus path", cfg.Observability.PrometheusPath, "/metrics"},
		{"brokers", strings.Join(cfg.Messaging.Kafka.Brokers, ","), "a:9092,b:9092"},
		{"ttl", cfg.Cache.DefaultTTL, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "http port", env: map[string]string{"HTTP_PORT": "0"}, want: "invalid HTTP port"},
		{name: "cache driver", env: map[string]string{"CACHE_DRIVER": "memcached"}, want: "unsupported cache driver"},
		{name: "messaging driver", env: map[string]string{"MESSAGING_DRIVER": "nats"}, want: "unsupported messaging driver"},
		{name: "notify driver", env: map[string]string{"NOTIFY_DRIVER": "email"}, want: "unsupported notify driver"},
		{name: "slack without token", env: map[string]string{"NOTIFY_DRIVER": "slack"}, want: "SLACK_BOT_TOKEN"},
		{name: "discord without channel", env: map[string]string{"NOTIFY_DRIVER": "discord", "DISCORD_BOT_TOKEN": "x"}, want: "DISCORD_CHANNEL_ID"},
		{name: "missing rates file", env: map[string]string{"PRODUCTION_RATES_FILE": "/nonexistent/rates.yaml"}, want: "read rates file"},
		{name: "unit rate without stage", env: map[string]string{"PRODUCTION_UNIT_RATES": "1.5"}, want: "expected stage=rate"},
		{name: "unit rate not a number", env: map[string]string{"PRODUCTION_UNIT_RATES": "cutting=fast"}, want: "invalid rate for cutting"},
		{name: "unit rate unknown stage", env: map[string]string{"PRODUCTION_UNIT_RATES": "painting=2"}, want: "unknown stage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := New()
			if err == nil {
				t.Fatal("New() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestLoadUnitRates(t *testing.T) {
	path := writeRates(t, "unit_rates:\n  cutting: 1.5\n  edge_banding: 0.75\n")

	rates, err := loadUnitRates(path)
	if err != nil {
		t.Fatalf("loadUnitRates() error: %v", err)
	}
	if rates[entity.StageCutting] != 1.5 || rates[entity.StageEdgeBanding] != 0.75 {
		t.Errorf("rates = %v", rates)
	}
	if _, ok := rates[entity.StageDrilling]; ok {
		t.Error("drilling rate set without being configured")
	}
}

func TestLoadUnitRates_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown stage", body: "unit_rates:\n  painting: 2\n", want: "unknown stage"},
		{name: "negative", body: "unit_rates:\n  drilling: -1\n", want: "negative rate"},
		{name: "malformed", body: "unit_rates: [1, 2\n", want: "parse rates file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadUnitRates(writeRates(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestNew_LoadsRatesFile(t *testing.T) {
	t.Setenv("PRODUCTION_RATES_FILE", writeRates(t, "unit_rates:\n  packaging: 3\n"))

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := cfg.Production.UnitRates[entity.StagePackaging]; got != 3 {
		t.Errorf("packaging rate = %v, want 3", got)
	}
}

func TestNew_UnitRatesOverrideFile(t *testing.T) {
	t.Setenv("PRODUCTION_RATES_FILE", writeRates(t, "unit_rates:\n  packaging: 3\n  cutting: 1\n"))
	t.Setenv("PRODUCTION_UNIT_RATES", "cutting=1.5, drilling = 0.4")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	want := map[entity.Stage]float64{
		entity.StagePackaging: 3,
		entity.StageCutting:   1.5,
		entity.StageDrilling:  0.4,
	}
	if !reflect.DeepEqual(cfg.Production.UnitRates, want) {
		t.Errorf("UnitRates = %v, want %v", cfg.Production.UnitRates, want)
	}
}

func TestParseStageRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		want    entity.Stage
		wantErr string
	}{
		{name: "edge_banding", rate: 0.8, want: entity.StageEdgeBanding},
		{name: "shipment", rate: 0, want: entity.StageShipment},
		{name: "painting", rate: 1, wantErr: "unknown stage"},
		{name: "cutting", rate: -0.5, wantErr: "negative rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStageRate(tt.name, tt.rate)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStageRate() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("stage = %s, want %s", got, tt.want)
			}
		})
	}
}
