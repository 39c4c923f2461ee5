package utils

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// GetExecutableDir returns the directory of the running binary.
func GetExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadTOMLFile decodes a TOML file into v.
func LoadTOMLFile(path string, v any) error {
	_, err := toml.DecodeFile(path, v)
	return err
}

// SaveTOMLFile encodes v as TOML and writes it to path.
func SaveTOMLFile(v any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(v)
}
