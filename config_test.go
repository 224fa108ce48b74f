package main

import (
	"testing"
	"time"
)

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfig(defaultFlagValues())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "base" {
		t.Errorf("model = %q, want base", cfg.Model)
	}
	if cfg.MinDuration != 500*time.Millisecond {
		t.Errorf("min duration = %v, want 500ms", cfg.MinDuration)
	}
	if cfg.MaxDuration != 10*time.Minute {
		t.Errorf("max duration = %v, want 10m", cfg.MaxDuration)
	}
	if cfg.Trigger.String() != "ctrl+shift+space" {
		t.Errorf("trigger = %q", cfg.Trigger.String())
	}
	if !cfg.AutoType || cfg.Toggle {
		t.Error("want autotype on, toggle off by default")
	}
	if cfg.EngineTimeout != 0 {
		t.Errorf("engine timeout = %v, want 0 (no timeout)", cfg.EngineTimeout)
	}
}

func TestValidateModel(t *testing.T) {
	for _, name := range []string{
		"tiny", "tiny.en", "base", "base.en",
		"small", "small.en", "medium", "medium.en", "large",
	} {
		if err := validateModel(name); err != nil {
			t.Errorf("validateModel(%q) = %v", name, err)
		}
	}
	for _, name := range []string{
		"", "Base", "huge", "large.en", "base-en", "whisper-base",
	} {
		if err := validateModel(name); err == nil {
			t.Errorf("validateModel(%q) should fail", name)
		}
	}
}

func TestBuildConfigRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*flagValues)
	}{
		{"bad model", func(fv *flagValues) { fv.model = "gigantic" }},
		{"zero min-duration", func(fv *flagValues) { fv.minDuration = 0 }},
		{"negative min-duration", func(fv *flagValues) { fv.minDuration = -0.5 }},
		{"zero max-duration", func(fv *flagValues) { fv.maxDuration = 0 }},
		{"max below min", func(fv *flagValues) { fv.maxDuration = 100 * time.Millisecond }},
		{"negative engine-timeout", func(fv *flagValues) { fv.engineTimeout = -time.Second }},
		{"bad key", func(fv *flagValues) { fv.key = "space" }},
		{"bad format", func(fv *flagValues) { fv.format = "mp3" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fv := defaultFlagValues()
			tc.mutate(&fv)
			if _, err := buildConfig(fv); err == nil {
				t.Errorf("buildConfig accepted %s", tc.name)
			}
		})
	}
}

func TestBuildConfigMinDurationConversion(t *testing.T) {
	fv := defaultFlagValues()
	fv.minDuration = 1.25
	cfg, err := buildConfig(fv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MinDuration != 1250*time.Millisecond {
		t.Errorf("min duration = %v, want 1.25s", cfg.MinDuration)
	}
}
