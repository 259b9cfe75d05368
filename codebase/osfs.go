package codebase

import "os"

func osReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 -- user-provided assembly source path
}
