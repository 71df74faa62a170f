package scene

import (
	"fmt"
	"slices"
	"strings"
)

// SceneInfo describes a scene that can be rendered
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Scene file path (file type only)
}

type builtin struct {
	info SceneInfo
	new  func() *Scene
}

var builtins = []builtin{
	{
		info: SceneInfo{ID: "cubes", Name: "Cubes", Description: "Red cube crosses over a white floor around a red emissive cube", Type: "builtin"},
		new:  NewCubesScene,
	},
	{
		info: SceneInfo{ID: "cornell", Name: "Cornell Box", Description: "Cornell box with two white blocks and a ceiling light", Type: "builtin"},
		new:  NewCornellScene,
	},
}

// Builtins lists the built-in scenes
func Builtins() []SceneInfo {
	infos := make([]SceneInfo, len(builtins))
	for i, b := range builtins {
		infos[i] = b.info
	}
	return infos
}

// ByName creates a built-in scene by its ID
func ByName(name string) (*Scene, error) {
	id := strings.ToLower(strings.TrimSpace(name))
	i := slices.IndexFunc(builtins, func(b builtin) bool { return b.info.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return builtins[i].new(), nil
}
