package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Additional-Code/millflow/internal/entity"
)

type ratesFile struct {
	UnitRates map[string]float64 `yaml:"unit_rates"`
}

// loadUnitRates reads per-stage payroll rates from a YAML file such as
//
//	unit_rates:
//	  cutting: 1.5
//	  edge_banding: 0.8
//
// An empty path yields an empty map.
func loadUnitRates(path string) (map[entity.Stage]float64, error) {
	rates := make(map[entity.Stage]float64)
	if path == "" {
		return rates, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates file: %w", err)
	}

	var file ratesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rates file %s: %w", path, err)
	}

	for name, rate := range file.UnitRates {
		stage, err := parseStageRate(name, rate)
		if err != nil {
			return nil, fmt.Errorf("rates file %s: %w", path, err)
		}
		rates[stage] = rate
	}
	return rates, nil
}
