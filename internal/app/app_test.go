package app

import (
	"testing"

	"go.uber.org/fx"
)

func TestGraphs(t *testing.T) {
	tests := []struct {
		name string
		opts fx.Option
	}{
		{"http", HTTP},
		{"worker", Worker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := fx.ValidateApp(tt.opts); err != nil {
				t.Fatalf("ValidateApp() error: %v", err)
			}
		})
	}
}
