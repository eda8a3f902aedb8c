package elastic

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(Config{Index: "chunks"}); err == nil {
		t.Error("expected error without addresses")
	}
	if _, err := NewClient(Config{Addresses: []string{"http://localhost:9200"}}); err == nil {
		t.Error("expected error without index")
	}
}

func TestIsRunning_OK(t *testing.T) {
	c, ft := newTestClient()
	ft.performFn = func(_ *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, ``), nil
	}

	if !c.IsRunning(context.Background()) {
		t.Error("expected IsRunning=true")
	}
}

func TestIsRunning_TransportFailureIsFalse(t *testing.T) {
	c, ft := newTestClient()
	ft.performFn = func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}

	// transport failure must be downgraded to false, never an error or panic
	if c.IsRunning(context.Background()) {
		t.Error("expected IsRunning=false")
	}
}

func TestIsRunning_EngineErrorIsFalse(t *testing.T) {
	c, ft := newTestClient()
	ft.performFn = func(_ *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusServiceUnavailable, ``), nil
	}

	if c.IsRunning(context.Background()) {
		t.Error("expected IsRunning=false")
	}
}

func TestWaitForRunning_Timeout(t *testing.T) {
	c, ft := newTestClient()
	ft.performFn = func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}

	err := c.WaitForRunning(context.Background(), 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestWaitForRunning_Immediate(t *testing.T) {
	c, ft := newTestClient()
	ft.performFn = func(_ *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, ``), nil
	}

	if err := c.WaitForRunning(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ft.calls) != 1 {
		t.Errorf("expected a single ping, got %d", len(ft.calls))
	}
}
