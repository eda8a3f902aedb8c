package health

import (
	"context"
	"testing"
)

type fakePinger struct {
	running bool
}

func (f *fakePinger) IsRunning(ctx context.Context) bool { return f.running }

func TestCheck_Healthy(t *testing.T) {
	svc := New(&fakePinger{running: true})

	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("status = %q, want %q", report.Status, Healthy)
	}
	if report.Checks["engine"] != CheckOK {
		t.Errorf("engine check = %q, want %q", report.Checks["engine"], CheckOK)
	}
}

func TestCheck_EngineDown(t *testing.T) {
	svc := New(&fakePinger{running: false})

	report := svc.Check(context.Background())

	if report.Status != Unhealthy {
		t.Errorf("status = %q, want %q", report.Status, Unhealthy)
	}
	if report.Checks["engine"] != CheckError {
		t.Errorf("engine check = %q, want %q", report.Checks["engine"], CheckError)
	}
}
