package configedit

import (
	"context"
	"errors"
	"testing"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

type fakeConfigClient struct {
	serverValue models.SessionConfig
	getErr      error
	updateErr   error
	updates     []models.SessionConfig
}

func (f *fakeConfigClient) GetConfig(ctx context.Context) (*models.SessionConfig, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	value := f.serverValue
	return &value, nil
}

func (f *fakeConfigClient) UpdateConfig(ctx context.Context, cfg models.SessionConfig) (*models.SessionConfig, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, cfg)
	f.serverValue = cfg
	value := cfg
	return &value, nil
}

func TestLoadAdoptsServerValueWhenClean(t *testing.T) {
	client := &fakeConfigClient{serverValue: models.SessionConfig{BatchSize: 5}}
	editor := NewSessionEditor(client)

	if err := editor.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if editor.Draft().BatchSize != 5 {
		t.Fatalf("clean load should adopt the server value, got %+v", editor.Draft())
	}
	if editor.State() != StateClean {
		t.Fatalf("expected clean, got %q", editor.State())
	}
}

func TestDirtyDraftSurvivesBackgroundLoad(t *testing.T) {
	client := &fakeConfigClient{serverValue: models.SessionConfig{BatchSize: 5}}
	editor := NewSessionEditor(client)
	ctx := context.Background()
	editor.Load(ctx)

	editor.Edit(func(cfg *models.SessionConfig) { cfg.BatchSize = 99 })

	// a refetch lands while the operator is mid-edit
	client.serverValue = models.SessionConfig{BatchSize: 7}
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("background load: %v", err)
	}

	if editor.Draft().BatchSize != 99 {
		t.Fatalf("local edits must win over a background refetch, got %+v", editor.Draft())
	}
	if editor.ServerValue().BatchSize != 7 {
		t.Fatalf("server cache should still update, got %+v", editor.ServerValue())
	}
	if editor.State() != StateDirty {
		t.Fatalf("expected dirty, got %q", editor.State())
	}
}

func TestSaveTransmitsWholeDraft(t *testing.T) {
	client := &fakeConfigClient{serverValue: models.SessionConfig{BatchSize: 5, MaxDelay: 30}}
	editor := NewSessionEditor(client)
	ctx := context.Background()
	editor.Load(ctx)

	editor.Edit(func(cfg *models.SessionConfig) { cfg.BatchSize = 10 })
	if err := editor.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(client.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(client.updates))
	}
	// the whole draft goes over the wire, untouched fields included
	if client.updates[0].BatchSize != 10 || client.updates[0].MaxDelay != 30 {
		t.Fatalf("save must transmit the full draft, got %+v", client.updates[0])
	}
	if editor.State() != StateClean {
		t.Fatalf("expected clean after save, got %q", editor.State())
	}
}

func TestFailedSaveKeepsDraft(t *testing.T) {
	client := &fakeConfigClient{serverValue: models.SessionConfig{BatchSize: 5}}
	editor := NewSessionEditor(client)
	ctx := context.Background()
	editor.Load(ctx)

	editor.Edit(func(cfg *models.SessionConfig) { cfg.BatchSize = 42 })

	saveErr := errors.New("Server error: boom")
	client.updateErr = saveErr
	if err := editor.Save(ctx); !errors.Is(err, saveErr) {
		t.Fatalf("expected the save error, got %v", err)
	}

	if editor.Draft().BatchSize != 42 {
		t.Fatalf("a failed save must lose nothing, got %+v", editor.Draft())
	}
	if editor.State() != StateDirty {
		t.Fatalf("expected dirty after a failed save, got %q", editor.State())
	}
	if editor.SaveError() == nil {
		t.Fatal("SaveError should carry the failure")
	}

	// retry succeeds without re-entering the edits
	client.updateErr = nil
	if err := editor.Save(ctx); err != nil {
		t.Fatalf("retry save: %v", err)
	}
	if editor.SaveError() != nil {
		t.Fatal("SaveError should clear on success")
	}
}

func TestSaveBeforeLoadIsRejected(t *testing.T) {
	editor := NewSessionEditor(&fakeConfigClient{})
	if err := editor.Save(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestRevertRestoresServerValue(t *testing.T) {
	client := &fakeConfigClient{serverValue: models.SessionConfig{BatchSize: 5}}
	editor := NewSessionEditor(client)
	ctx := context.Background()
	editor.Load(ctx)

	editor.Edit(func(cfg *models.SessionConfig) { cfg.BatchSize = 99 })
	if err := editor.Revert(); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if editor.Draft().BatchSize != 5 {
		t.Fatalf("revert should restore the server value, got %+v", editor.Draft())
	}
	if editor.State() != StateClean {
		t.Fatalf("expected clean after revert, got %q", editor.State())
	}
}

func TestWarmupEditorHoldsSevenIndependentDrafts(t *testing.T) {
	editor := NewWarmupEditor()

	if editor.SelectedDay() != 1 {
		t.Fatalf("expected day 1 selected initially, got %d", editor.SelectedDay())
	}

	day3, err := editor.Day(3)
	if err != nil {
		t.Fatalf("day 3: %v", err)
	}
	day3.Limits.MaxLikes = 500
	if err := editor.UpdateDay(3, day3); err != nil {
		t.Fatalf("update day 3: %v", err)
	}

	// switching days must not discard other days' edits
	if err := editor.SelectDay(5); err != nil {
		t.Fatalf("select day 5: %v", err)
	}
	if err := editor.SelectDay(3); err != nil {
		t.Fatalf("select day 3: %v", err)
	}

	got, _ := editor.Day(3)
	if got.Limits.MaxLikes != 500 {
		t.Fatalf("day 3 edits lost across day switches, got %+v", got.Limits)
	}
	day5, _ := editor.Day(5)
	if day5.Limits.MaxLikes == 500 {
		t.Fatal("day 5 must not inherit day 3 edits")
	}
}

func TestWarmupEditorResetDay(t *testing.T) {
	editor := NewWarmupEditor()

	day2, _ := editor.Day(2)
	original := day2.Limits.MaxFollows
	day2.Limits.MaxFollows = 999
	editor.UpdateDay(2, day2)

	if err := editor.ResetDay(2); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, _ := editor.Day(2)
	if got.Limits.MaxFollows != original {
		t.Fatalf("reset should restore the default, got %d want %d", got.Limits.MaxFollows, original)
	}
}

func TestWarmupEditorRejectsOutOfRangeDays(t *testing.T) {
	editor := NewWarmupEditor()

	for _, day := range []int{0, 8, -1} {
		if err := editor.SelectDay(day); err == nil {
			t.Errorf("SelectDay(%d) should fail", day)
		}
		if _, err := editor.Day(day); err == nil {
			t.Errorf("Day(%d) should fail", day)
		}
		if err := editor.UpdateDay(day, models.WarmupDayConfig{}); err == nil {
			t.Errorf("UpdateDay(%d) should fail", day)
		}
	}
}

func TestWarmupEditorAllowsInvertedMinMax(t *testing.T) {
	editor := NewWarmupEditor()

	cfg, _ := editor.Day(1)
	cfg.Feed.MinScrolls = 50
	cfg.Feed.MaxScrolls = 10
	if err := editor.UpdateDay(1, cfg); err != nil {
		t.Fatalf("inverted min/max must be held verbatim: %v", err)
	}
	got, _ := editor.Day(1)
	if got.Feed.MinScrolls != 50 || got.Feed.MaxScrolls != 10 {
		t.Fatalf("values not held verbatim: %+v", got.Feed)
	}
}
