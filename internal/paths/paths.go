// Package paths gives file paths types that record what was checked.
//
// An AbsolutePath is always cleaned and absolute; a RelativePath is always
// cleaned and relative. Functions that take them can skip re-validating.
//
// Pass them by value when they are guaranteed to be set and by pointer when
// nil means "unset". `string(path)` returns the text form.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AbsolutePath is a cleaned, absolute path using the OS file separator.
//
// It has no trailing separator unless it is a root directory.
type AbsolutePath string

// RelativePath is a cleaned, non-empty, relative path using the OS file
// separator.
//
// Any ".." components appear only at the start.
type RelativePath string

// OrEmpty returns the path, or an empty string if the path is nil.
func (path *AbsolutePath) OrEmpty() string {
	if path == nil {
		return ""
	}
	return string(*path)
}

// CWD returns the current working directory.
func CWD() (*AbsolutePath, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return toPtr(AbsolutePath(filepath.Clean(cwd))), nil
}

// Absolute makes a path absolute, joining it to the working directory if
// it is relative.
//
// An empty string becomes the working directory.
func Absolute(path string) (*AbsolutePath, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	return toPtr(AbsolutePath(absPath)), nil
}

// Relative returns the cleaned path if it's relative, or returns an error.
func Relative(path string) (*RelativePath, error) {
	if filepath.IsAbs(path) {
		return nil, fmt.Errorf("path is not relative: %q", path)
	}

	return toPtr(RelativePath(filepath.Clean(path))), nil
}

// Join returns the result of appending a relative path to this one.
func (path AbsolutePath) Join(child RelativePath) AbsolutePath {
	return AbsolutePath(filepath.Join(string(path), string(child)))
}

// Child returns the path of a file or directory directly or indirectly
// inside this one.
//
// It is an error if name is absolute or escapes the directory.
func (path AbsolutePath) Child(name string) (AbsolutePath, error) {
	rel, err := Relative(name)
	if err != nil {
		return "", err
	}

	if !rel.IsLocal() || *rel == "." {
		return "", fmt.Errorf("%q is not a name inside %q", name, path)
	}

	return path.Join(*rel), nil
}

// RelativeTo returns an equivalent path that is relative to the given path.
//
// On Windows, this fails for paths on different volumes.
func (path AbsolutePath) RelativeTo(base AbsolutePath) (*RelativePath, error) {
	result, err := filepath.Rel(string(base), string(path))
	if err != nil {
		return nil, err
	}

	return toPtr(RelativePath(result)), nil
}

// IsLocal reports whether the relative path does not start with "..".
func (path RelativePath) IsLocal() bool {
	return filepath.IsLocal(string(path))
}

// ToSlash returns the path with forward slashes as separators.
func (path RelativePath) ToSlash() string {
	return filepath.ToSlash(string(path))
}

func toPtr[T any](x T) *T {
	return &x
}
