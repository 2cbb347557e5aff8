/*
NAME
  discovery.go

DESCRIPTION
  discovery.go implements engine discovery: listing the executables in
  one or more engine directories. It generalises the original C
  util.c's swListDirectory, which scanned a single hard-coded directory
  for candidate engine binaries, into a reusable, testable scan over
  any number of directories that keeps only files with an execute bit.

LICENSE
  MIT
*/

package discovery

import (
	"os"
	"path/filepath"
	"sort"
)

// Engine describes one discovered engine stub executable.
type Engine struct {
	// Name is the executable's base name, used as the engine identifier
	// in "getversion"-style reporting and CLI selection.
	Name string
	// Path is the absolute path to the executable.
	Path string
}

// ListEngines scans each directory in dirs for executable regular
// files and returns them sorted by Name. Missing directories are
// skipped rather than treated as an error, since a host may configure
// several search paths where not all exist on every machine.
func ListEngines(dirs []string) ([]Engine, error) {
	var engines []Engine
	seen := make(map[string]bool)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !isExecutable(info.Mode()) {
				continue
			}
			name := entry.Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			engines = append(engines, Engine{
				Name: name,
				Path: filepath.Join(dir, name),
			})
		}
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i].Name < engines[j].Name })
	return engines, nil
}

func isExecutable(mode os.FileMode) bool {
	return !mode.IsDir() && mode&0111 != 0
}
