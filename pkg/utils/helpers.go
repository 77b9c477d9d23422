package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//InSlice returns true if given string appears in given slice
func InSlice(lookingFor string, slice []string) bool {
	for _, s := range slice {
		if s == lookingFor {
			return true
		}
	}

	return false
}

//ListDir returns a list of the regular files in given path
func ListDir(path string) ([]string, error) {
	names := make([]string, 0)
	if files, err := os.ReadDir(path); err != nil {
		return nil, fmt.Errorf("ListDir: Error, got '%v'", err)
	} else {
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			names = append(names, f.Name())
		}
	}

	return names, nil
}

//EnsureDirs creates every missing directory in dirs, parents included
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("EnsureDirs: '%s', got '%v'", dir, err)
			}
			if err := os.MkdirAll(dir, DirPermissions); err != nil {
				return fmt.Errorf("EnsureDirs: Error creating '%s' directory, got '%v'", dir, err)
			}
		}
	}

	return nil
}

//IsVideoFile reports whether name has one of VideoExtensions (case insensitive)
func IsVideoFile(name string) bool {
	return InSlice(strings.ToLower(filepath.Ext(name)), VideoExtensions)
}

//SafeBase returns name's last path element, stripping any directory a client may have sent
func SafeBase(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
