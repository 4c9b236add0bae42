package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the user-level config file path, following the
// XDG Base Directory Specification on Linux.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "planops", "config.yml"), nil
}

// ProjectConfigPath returns the project-level config file path, relative
// to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(".planops", "config.yml")
}

// LegacyProjectConfigPath returns the deprecated JSON project config
// path, still loaded for backward compatibility.
func LegacyProjectConfigPath() string {
	return filepath.Join(".planops", "config.json")
}
