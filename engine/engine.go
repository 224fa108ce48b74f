// Package engine calls the speech-recognition backend that turns a recorded
// utterance into text.
package engine

import (
	"context"
	"os"

	"sotto/encoder"
)

// DefaultServerURL points at a whisper server running on the local machine.
const DefaultServerURL = "http://127.0.0.1:8080/inference"

// Engine is the recognition backend. Transcribe may take seconds and is
// treated as a black box: one utterance in, one text or error out.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, samples []float32, sampleRate int, model string) (string, error)
}

// ResolveURL applies the endpoint priority: the -server flag, the
// SOTTO_SERVER_URL environment variable, then the local default.
func ResolveURL(flagURL string) string {
	if flagURL != "" {
		return flagURL
	}
	if env := os.Getenv("SOTTO_SERVER_URL"); env != "" {
		return env
	}
	return DefaultServerURL
}

// New builds the HTTP engine client.
func New(flagURL string, format encoder.Format) Engine {
	return NewServer(ResolveURL(flagURL), format)
}
