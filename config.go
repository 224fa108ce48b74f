package main

import (
	"fmt"
	"time"

	"sotto/encoder"
	"sotto/hotkey"
)

// Config is the immutable runtime configuration. Built once at startup,
// passed by value, never mutated.
type Config struct {
	Model         string
	MinDuration   time.Duration
	MaxDuration   time.Duration
	Trigger       hotkey.Combo
	Toggle        bool
	AutoType      bool
	ServerURL     string // empty resolves via SOTTO_SERVER_URL or the default
	Format        encoder.Format
	EngineTimeout time.Duration
}

// flagValues carries the raw CLI inputs into buildConfig.
type flagValues struct {
	model         string
	minDuration   float64 // seconds
	maxDuration   time.Duration
	key           string
	toggle        bool
	autotype      bool
	server        string
	format        string
	engineTimeout time.Duration
}

var validModels = map[string]bool{
	"tiny": true, "tiny.en": true,
	"base": true, "base.en": true,
	"small": true, "small.en": true,
	"medium": true, "medium.en": true,
	"large": true,
}

func validateModel(name string) error {
	if !validModels[name] {
		return fmt.Errorf("unknown model %q (tiny, base, small, medium or large; .en variants except large)", name)
	}
	return nil
}

// buildConfig validates the raw flag values and assembles the Config.
// Any error here is fatal at startup.
func buildConfig(fv flagValues) (Config, error) {
	if err := validateModel(fv.model); err != nil {
		return Config{}, err
	}
	if fv.minDuration <= 0 {
		return Config{}, fmt.Errorf("min-duration must be positive, got %g", fv.minDuration)
	}
	minDur := time.Duration(fv.minDuration * float64(time.Second))
	if fv.maxDuration <= 0 {
		return Config{}, fmt.Errorf("max-duration must be positive, got %s", fv.maxDuration)
	}
	if fv.maxDuration < minDur {
		return Config{}, fmt.Errorf("max-duration %s is below min-duration %gs", fv.maxDuration, fv.minDuration)
	}
	if fv.engineTimeout < 0 {
		return Config{}, fmt.Errorf("engine-timeout must not be negative, got %s", fv.engineTimeout)
	}
	combo, err := hotkey.ParseCombo(fv.key)
	if err != nil {
		return Config{}, fmt.Errorf("invalid trigger key: %w", err)
	}
	format, err := encoder.ParseFormat(fv.format)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Model:         fv.model,
		MinDuration:   minDur,
		MaxDuration:   fv.maxDuration,
		Trigger:       combo,
		Toggle:        fv.toggle,
		AutoType:      fv.autotype,
		ServerURL:     fv.server,
		Format:        format,
		EngineTimeout: fv.engineTimeout,
	}, nil
}

// defaultFlagValues mirrors the flag defaults for test and doc use.
func defaultFlagValues() flagValues {
	return flagValues{
		model:       "base",
		minDuration: 0.5,
		maxDuration: 10 * time.Minute,
		key:         hotkey.DefaultTrigger,
		autotype:    true,
		format:      "wav",
	}
}
