package validate

import (
	"os"
)

// IsDirectory checks if the path points to a directory.
// It returns an error if the path is not a directory, using the provided message and arguments.
func IsDirectory(path string, msg string, args ...any) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return createError(msg, args...)
	}
	return nil
}
