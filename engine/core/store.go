package core

import "path/filepath"

// GetStoreDir returns the module's working directory for generated artifacts,
// such as the converter worker script.
func GetStoreDir(cwd string) string {
	if cwd == "" {
		return ".routine"
	}
	return filepath.Join(cwd, ".routine")
}
