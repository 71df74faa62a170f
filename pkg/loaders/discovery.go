package loaders

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/df07/go-tiled-pathtracer/pkg/scene"
)

// ListSceneFiles scans dir for *.json scene files and returns their metadata.
// A missing directory yields an empty list.
func ListSceneFiles(dir string, logger *slog.Logger) ([]scene.SceneInfo, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []scene.SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := make([]scene.SceneInfo, 0, len(files))
	for _, filePath := range files {
		info, err := ReadSceneInfo(filePath)
		if err != nil {
			// Keep going; one broken file should not hide the others
			logger.Warn("failed to read scene metadata", "file", filePath, "error", err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})

	return scenes, nil
}

// ReadSceneInfo extracts the name and description of a scene file, falling
// back to a title-cased file name
func ReadSceneInfo(filePath string) (scene.SceneInfo, error) {
	id := sceneID(filePath)
	info := scene.SceneInfo{
		ID:       "file:" + id,
		Name:     titleCase(id),
		Type:     "file",
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, err
	}

	var header struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return info, fmt.Errorf("%w: %w", ErrInvalidSceneFile, err)
	}

	if header.Name != "" {
		info.Name = header.Name
	}
	info.Description = header.Description
	return info, nil
}

// sceneID is the file name without its extension
func sceneID(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// titleCase turns "cornell-empty" or "dragon_gold" into "Cornell Empty" / "Dragon Gold"
func titleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
