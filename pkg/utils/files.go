package utils

import (
	"os"
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ConfigPath picks the configuration file for a ROM. An explicit path wins;
// otherwise name is looked up next to the ROM and then in the working
// directory. It returns "" when nothing exists, meaning defaults.
func ConfigPath(romPath, explicit, name string) (string, error) {
	if explicit != "" {
		full, _, err := GetPathInfo(explicit)
		return full, err
	}

	_, romDir, err := GetPathInfo(romPath)
	if err != nil {
		return "", err
	}
	for _, dir := range []string{romDir, "."} {
		candidate, _, err := GetPathInfo(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// RomName returns the ROM file name without directory or extension, for
// window titles and derived output names.
func RomName(romPath string) string {
	base := filepath.Base(romPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
