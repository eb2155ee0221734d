package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Backend is a pluggable speech-to-text backend. Implementations submit the
// chunk audio at audioPath and return the raw transcription.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (*BackendResult, error)
}

// BackendResult is the backend's answer for one chunk: transcript text,
// optional language tag, optional word-level timestamps (relative to the
// chunk start) and optional confidence.
type BackendResult struct {
	Text       string
	Language   string
	Duration   float64
	Words      []Word
	Confidence *float64
}

// Client calls a Whisper-compatible audio transcription endpoint
// (Groq or OpenAI style: POST {base}/audio/transcriptions, multipart form,
// verbose JSON with word-level timestamp granularity).
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint and model.
func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{},
	}
}

type transcriptionResponse struct {
	Text       string   `json:"text"`
	Language   string   `json:"language,omitempty"`
	Duration   float64  `json:"duration,omitempty"`
	Words      []Word   `json:"words,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Transcribe submits the audio file and decodes the verbose JSON response.
// The per-call deadline is the caller's responsibility (via ctx).
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*BackendResult, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"model", c.model},
		{"response_format", "verbose_json"},
		{"temperature", "0"},
		{"timestamp_granularities[]", "word"},
	}
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("failed to build request form: %w", err)
		}
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to build request form: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("failed to read chunk audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize request form: %w", err)
	}

	url := c.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription backend returned HTTP %d: %s", resp.StatusCode, string(b))
	}

	var tr transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return &BackendResult{
		Text:       tr.Text,
		Language:   tr.Language,
		Duration:   tr.Duration,
		Words:      tr.Words,
		Confidence: tr.Confidence,
	}, nil
}
