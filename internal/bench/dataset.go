package bench

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/23skdu/costfield/internal/errors"
	"github.com/23skdu/costfield/internal/scenario"
)

// Dataset locates MovingAI files laid out as <Root>/scen/<type>/*.scen and
// <Root>/map/<type>/<map name>.
type Dataset struct {
	Root       string
	MapTypes   []string
	Map        string // only run this map name when set
	FilesLimit int    // scenario files per map type; <= 0 means all
}

// ScenarioFiles lists the .scen files of mapType in name order, truncated to
// FilesLimit. A missing directory yields no files.
func (d Dataset) ScenarioFiles(mapType string) ([]string, error) {
	dir := filepath.Join(d.Root, "scen", mapType)
	entries, err := os.ReadDir(dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapStorageError(err, "list_scenarios", "read dir failed").WithContext("dir", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".scen") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
		if d.FilesLimit > 0 && len(files) == d.FilesLimit {
			break
		}
	}
	return files, nil
}

// MapPath returns where the map referenced by a scenario file lives.
func (d Dataset) MapPath(mapType, mapName string) string {
	return filepath.Join(d.Root, "map", mapType, mapName)
}

// RunDataset benchmarks every selected scenario file of d. Files without
// entries, maps filtered out by d.Map and scenario files whose map is missing
// are skipped.
func (r *Runner) RunDataset(ctx context.Context, d Dataset) ([]Result, error) {
	var results []Result
	for _, mapType := range d.MapTypes {
		files, err := d.ScenarioFiles(mapType)
		if err != nil {
			return results, err
		}
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			entries, err := scenario.LoadScenarios(path)
			if err != nil {
				return results, err
			}
			if len(entries) == 0 {
				continue
			}
			name := entries[0].Map
			if d.Map != "" && name != d.Map {
				continue
			}
			mapPath := d.MapPath(mapType, name)
			if _, err := os.Stat(mapPath); err != nil {
				r.logger.Warn().Str("map", name).Str("path", mapPath).Msg("map file missing, skipping")
				continue
			}
			g, err := scenario.LoadMap(mapPath)
			if err != nil {
				return results, err
			}

			res, err := r.RunMap(ctx, name, g, scenario.Tasks(entries))
			if stderrors.Is(err, ErrNoTasks) {
				continue
			}
			if err != nil {
				return results, errors.WrapComputationError(err, "run_map", "benchmark failed").WithContext("map", name)
			}
			results = append(results, res)
		}
	}
	return results, nil
}
