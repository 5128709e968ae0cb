package models

import "testing"

func TestMapRuntimeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want DisplayStatus
	}{
		{"RUNNING", StatusRunning},
		{"ACTIVE", StatusRunning},
		{"running", StatusRunning},
		{"  Running  ", StatusRunning},
		{"READY", StatusOnline},
		{"IDLE", StatusOnline},
		{"WAITING", StatusOnline},
		{"PENDING", StatusOnline},
		{"PAUSED", StatusPaused},
		{"COOLDOWN", StatusCooldown},
		{"OFFLINE", StatusOffline},
		{"DISABLED", StatusOffline},
		{"ERROR", StatusError},
		{"FAILED", StatusError},
		{"", StatusUnknown},
		{"SOMETHING_NEW", StatusUnknown},
	}

	for _, tc := range cases {
		if got := MapRuntimeStatus(tc.raw); got != tc.want {
			t.Errorf("MapRuntimeStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestDisplayStatusFromRecord(t *testing.T) {
	d := DeviceRecord{RuntimeStatus: "cooldown"}
	if got := d.DisplayStatus(); got != StatusCooldown {
		t.Fatalf("DisplayStatus() = %q, want %q", got, StatusCooldown)
	}
}

func TestTaskModeValid(t *testing.T) {
	if !TaskModeFollow.Valid() || !TaskModeWarmup.Valid() {
		t.Fatal("expected follow and warmup to be valid modes")
	}
	if TaskMode("turbo").Valid() {
		t.Fatal("expected unknown mode to be invalid")
	}
}
