package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"sotto/encoder"
	"sotto/log"
)

// Server talks to a whisper-compatible HTTP endpoint: multipart upload of
// the encoded audio, JSON text back.
type Server struct {
	client *TracedClient
	url    string
	format encoder.Format
}

func NewServer(url string, format encoder.Format) *Server {
	return &Server{
		client: NewTracedClient(url),
		url:    url,
		format: format,
	}
}

func (s *Server) Name() string { return "server" }

// Warm pre-opens the HTTP connection; called when recording starts.
func (s *Server) Warm() {
	s.client.Warm()
}

type serverResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func (s *Server) Transcribe(ctx context.Context, samples []float32, sampleRate int, model string) (string, error) {
	if sampleRate != encoder.SampleRate {
		return "", fmt.Errorf("unsupported sample rate %d (want %d)", sampleRate, encoder.SampleRate)
	}

	encodeStart := time.Now()
	audioData, err := encoder.Encode(s.format, samples)
	if err != nil {
		return "", fmt.Errorf("encoding audio: %w", err)
	}
	encodeTime := time.Since(encodeStart)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+string(s.format))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audioData); err != nil {
		return "", err
	}

	writer.WriteField("model", model)
	writer.WriteField("response_format", "json")
	writer.WriteField("temperature", "0.0")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognition request: %w", err)
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("recognition server error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var sResp serverResponse
	if err := json.Unmarshal(resp.Body, &sResp); err != nil {
		return "", fmt.Errorf("recognition response parse error: %w", err)
	}
	if sResp.Error != "" {
		return "", fmt.Errorf("recognition failed: %s", sResp.Error)
	}

	rawKB := float64(len(samples)*2) / 1024
	compressedKB := float64(len(audioData)) / 1024
	compressionPct := 0.0
	if rawKB > 0 {
		compressionPct = (1 - compressedKB/rawKB) * 100
	}
	m := resp.Metrics
	log.TranscriptionMetrics(log.Metrics{
		AudioLengthS:     float64(len(samples)) / float64(sampleRate),
		RawSizeKB:        rawKB,
		CompressedSizeKB: compressedKB,
		CompressionPct:   compressionPct,
		EncodeTimeMs:     float64(encodeTime.Milliseconds()),
		DNSTimeMs:        float64(m.DNS.Milliseconds()),
		ConnectTimeMs:    float64((m.ConnWait + m.TCP + m.TLS).Milliseconds()),
		TTFBMs:           float64(m.TTFB.Milliseconds()),
		TotalTimeMs:      float64(m.Total.Milliseconds()),
	}, string(s.format), m.ConnReused)

	// whisper likes to pad its output with spaces and newlines
	return strings.TrimSpace(sResp.Text), nil
}
