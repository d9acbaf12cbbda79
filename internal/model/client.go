// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FragmentSink receives each streamed text fragment as it arrives. Used for
// live terminal display; a nil sink is valid and discards nothing visible.
type FragmentSink func(fragment string)

// Generator produces one completion per call, streaming its fragments to
// sink and returning their exact concatenation in emission order.
type Generator interface {
	Generate(ctx context.Context, prompt string, sink FragmentSink) (string, error)
}

// Client is the production Generator speaking the llama-server /completion
// protocol with streaming enabled.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
}

// NewClient builds a completion client against endpoint. The HTTP client
// must not carry a short global timeout: a full draft can stream for
// minutes, so cancellation is the caller's context.
func NewClient(endpoint string, maxTokens int, temperature float64) *Client {
	if maxTokens <= 0 {
		maxTokens = 700
	}
	if temperature <= 0 {
		temperature = 0.35
	}
	return &Client{
		endpoint:    strings.TrimRight(endpoint, "/"),
		httpClient:  &http.Client{},
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// completionRequest is the llama-server /completion request body.
type completionRequest struct {
	Prompt      string  `json:"prompt"`
	NPredict    int     `json:"n_predict"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

// completionChunk is one streamed SSE payload from llama-server.
type completionChunk struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

// Generate streams one completion. Each fragment is forwarded to sink in
// arrival order; the returned string is exactly their concatenation. The
// stream is not restartable: any error discards the partial output.
func (c *Client) Generate(ctx context.Context, prompt string, sink FragmentSink) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		NPredict:    c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
	})
	if err != nil {
		return "", &ModelError{Kind: KindInference, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", &ModelError{Kind: KindInference, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &ModelError{Kind: KindInference,
			Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, string(msg))}
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", &ModelError{Kind: KindInference, Err: fmt.Errorf("decoding stream chunk: %w", err)}
		}
		if chunk.Content != "" {
			full.WriteString(chunk.Content)
			if sink != nil {
				sink(chunk.Content)
			}
		}
		if chunk.Stop {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", c.classify(err)
	}

	return full.String(), nil
}

// classify wraps a transport error, promoting deadline errors to
// inference_timeout.
func (c *Client) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ModelError{Kind: KindInferenceTimeout, Err: err}
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return &ModelError{Kind: KindInferenceTimeout, Err: err}
	}
	return &ModelError{Kind: KindInference, Err: err}
}
