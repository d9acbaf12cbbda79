// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/pdiddy/clout-engine/pkg/types"
)

const (
	binLlamaServer = "llama-server"

	// startupTimeout bounds how long the server may take to load the model.
	startupTimeout = 120 * time.Second

	healthPollInterval = 500 * time.Millisecond
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Start(name string, args ...string) (stop func() error, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Start(name string, args ...string) (func() error, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return func() error {
		if err := cmd.Process.Kill(); err != nil {
			return err
		}
		cmd.Wait()
		return nil
	}, nil
}

var defaultExec executor = &osExecutor{}

// Runtime manages the lifecycle of a llama-server process.
type Runtime struct {
	cfg      types.ModelConfig
	exec     executor
	endpoint string
	stop     func() error
}

// NewRuntime builds a runtime for cfg without starting anything.
func NewRuntime(cfg types.ModelConfig) *Runtime {
	return newRuntime(cfg, defaultExec)
}

func newRuntime(cfg types.ModelConfig, exec executor) *Runtime {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8080"
	}
	return &Runtime{cfg: cfg, exec: exec, endpoint: endpoint}
}

// Endpoint returns the base URL completions should be sent to.
func (r *Runtime) Endpoint() string { return r.endpoint }

// Start makes the model server available. When the config names a running
// endpoint it only verifies health; otherwise it checks the model file,
// locates the llama-server binary, launches it, and waits for the health
// endpoint to come up. All failures are *ModelError with kind load_failure.
func (r *Runtime) Start(ctx context.Context) error {
	if r.cfg.Endpoint != "" {
		if err := r.waitHealthy(ctx, 5*time.Second); err != nil {
			return &ModelError{Kind: KindLoadFailure,
				Err: fmt.Errorf("endpoint %s not responding: %w", r.endpoint, err)}
		}
		return nil
	}

	if _, err := os.Stat(r.cfg.ModelPath); err != nil {
		return &ModelError{Kind: KindLoadFailure,
			Err: fmt.Errorf("model file %s: %w", r.cfg.ModelPath, err)}
	}

	bin, err := r.exec.LookPath(binLlamaServer)
	if err != nil {
		return &ModelError{Kind: KindLoadFailure,
			Err: fmt.Errorf("%s not found on PATH: %w", binLlamaServer, err)}
	}

	stop, err := r.exec.Start(bin,
		"-m", r.cfg.ModelPath,
		"--port", "8080",
		"--host", "127.0.0.1",
		"-c", "2048",
	)
	if err != nil {
		return &ModelError{Kind: KindLoadFailure,
			Err: fmt.Errorf("starting %s: %w", binLlamaServer, err)}
	}
	r.stop = stop

	if err := r.waitHealthy(ctx, startupTimeout); err != nil {
		r.Stop()
		return &ModelError{Kind: KindLoadFailure,
			Err: fmt.Errorf("server never became healthy: %w", err)}
	}
	return nil
}

// Stop terminates a server this runtime launched. A no-op for external
// endpoints.
func (r *Runtime) Stop() error {
	if r.stop == nil {
		return nil
	}
	defer func() { r.stop = nil }()
	return r.stop()
}

// waitHealthy polls GET /health until it answers 200 or the deadline passes.
func (r *Runtime) waitHealthy(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: healthPollInterval}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(healthPollInterval):
		}
	}
}
