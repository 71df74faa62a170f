package loaders

import (
	"path/filepath"
	"testing"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"cornell-empty", "Cornell Empty"},
		{"dragon_gold", "Dragon Gold"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if result := titleCase(tc.input); result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestListSceneFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "room.json", testSceneJSON)
	writeFile(t, dir, "plain-box.json", `{"camera": {"lookFrom": [0,0,0], "lookAt": [0,0,1]}}`)
	writeFile(t, dir, "broken.json", `{`)
	writeFile(t, dir, "notes.txt", "not a scene")

	scenes, err := ListSceneFiles(dir, nil)
	if err != nil {
		t.Fatalf("ListSceneFiles failed: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("Expected 2 scenes, got %d: %+v", len(scenes), scenes)
	}

	// Sorted by name: "Plain Box" (from the file name) before "test-room"
	if scenes[0].Name != "Plain Box" || scenes[0].ID != "file:plain-box" {
		t.Errorf("Unexpected first scene %+v", scenes[0])
	}
	if scenes[1].Name != "test-room" || scenes[1].Description != "Floor and a lamp" {
		t.Errorf("Unexpected second scene %+v", scenes[1])
	}
	if scenes[1].Type != "file" || scenes[1].FilePath != filepath.Join(dir, "room.json") {
		t.Errorf("Unexpected file info %+v", scenes[1])
	}
}

func TestListSceneFilesMissingDir(t *testing.T) {
	scenes, err := ListSceneFiles(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil || len(scenes) != 0 {
		t.Errorf("Expected empty list, got %v (%v)", scenes, err)
	}
}
