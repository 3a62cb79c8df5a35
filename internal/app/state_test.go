package app

import (
	"os"
	"testing"
)

func TestNewState(t *testing.T) {
	state := newState("botstrap.yaml", "run-123")

	if state.SchemaVersion != StateSchemaVersion {
		t.Errorf("Expected schema version %s, got %s", StateSchemaVersion, state.SchemaVersion)
	}
	if state.RunID != "run-123" {
		t.Errorf("Expected run ID 'run-123', got %s", state.RunID)
	}
	if state.RecipePath != "botstrap.yaml" {
		t.Errorf("Expected recipe path 'botstrap.yaml', got %s", state.RecipePath)
	}
	if state.LastSuccessfulStage != "" {
		t.Errorf("Expected no completed stage on fresh state, got %s", state.LastSuccessfulStage)
	}
}

func TestShouldSkipStage(t *testing.T) {
	tests := []struct {
		name      string
		lastStage ExecutionStage
		stage     ExecutionStage
		skip      bool
	}{
		{"fresh state skips nothing", "", StageRender, false},
		{"render done skips render", StageRender, StageRender, true},
		{"render done runs build", StageRender, StageBuild, false},
		{"render done runs launch", StageRender, StageLaunch, false},
		{"build done skips render", StageBuild, StageRender, true},
		{"build done skips build", StageBuild, StageBuild, true},
		{"build done runs launch", StageBuild, StageLaunch, false},
		{"launch done skips everything", StageLaunch, StageLaunch, true},
		{"completed skips everything", StageCompleted, StageLaunch, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			state := newState("botstrap.yaml", "run-123")
			state.LastSuccessfulStage = test.lastStage

			if got := state.shouldSkipStage(test.stage); got != test.skip {
				t.Errorf("shouldSkipStage(%s) with last=%s: got %v, want %v", test.stage, test.lastStage, got, test.skip)
			}
		})
	}
}

func TestGetNextStage(t *testing.T) {
	tests := []struct {
		lastStage ExecutionStage
		next      ExecutionStage
	}{
		{"", StageRender},
		{StageRender, StageBuild},
		{StageBuild, StageLaunch},
		{StageLaunch, StageCompleted},
	}

	for _, test := range tests {
		state := newState("botstrap.yaml", "run-123")
		state.LastSuccessfulStage = test.lastStage

		if got := state.getNextStage(); got != test.next {
			t.Errorf("getNextStage() with last=%s: got %s, want %s", test.lastStage, got, test.next)
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	os.Remove(StateFileName)
	defer os.Remove(StateFileName)

	state := newState("botstrap.yaml", "run-456")
	state.LastSuccessfulStage = StageBuild

	if err := saveState(state); err != nil {
		t.Fatalf("saveState() failed: %v", err)
	}

	loaded, err := loadState()
	if err != nil {
		t.Fatalf("loadState() failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("loadState() returned nil after save")
	}

	if loaded.RunID != "run-456" {
		t.Errorf("Expected run ID 'run-456', got %s", loaded.RunID)
	}
	if loaded.LastSuccessfulStage != StageBuild {
		t.Errorf("Expected last stage %s, got %s", StageBuild, loaded.LastSuccessfulStage)
	}
}

func TestLoadState_NoFile(t *testing.T) {
	os.Remove(StateFileName)

	state, err := loadState()
	if err != nil {
		t.Fatalf("loadState() failed: %v", err)
	}
	if state != nil {
		t.Error("Expected nil state when no state file exists")
	}
}

func TestRemoveStateFile(t *testing.T) {
	os.Remove(StateFileName)

	// Removing a missing file is not an error
	if err := removeStateFile(); err != nil {
		t.Errorf("removeStateFile() on missing file failed: %v", err)
	}

	state := newState("botstrap.yaml", "run-789")
	if err := saveState(state); err != nil {
		t.Fatalf("saveState() failed: %v", err)
	}

	if err := removeStateFile(); err != nil {
		t.Errorf("removeStateFile() failed: %v", err)
	}
	if _, err := os.Stat(StateFileName); !os.IsNotExist(err) {
		t.Error("State file still exists after removal")
	}
}
