package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/asm"
)

// Program is a loaded ROM image plus where it came from.
type Program struct {
	Path      string // absolute path
	Dir       string // directory containing Path
	Image     []byte
	SourceMap map[uint16]int // nil for binary ROMs
}

// Name returns the file name without directory or extension.
func (p Program) Name() string {
	base := filepath.Base(p.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// IsSource reports whether path names assembly source rather than a binary
// ROM.
func IsSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s", ".src":
		return true
	}
	return false
}

// LoadProgram reads a ROM, assembling it first when it is source.
func LoadProgram(path string) (Program, error) {
	fullPath, dir, err := GetPathInfo(path)
	if err != nil {
		return Program{}, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return Program{}, err
	}

	p := Program{Path: fullPath, Dir: dir, Image: data}
	if IsSource(fullPath) {
		p.Image, p.SourceMap, err = asm.Assemble(string(data))
		if err != nil {
			return Program{}, fmt.Errorf("assembling %s: %w", filepath.Base(fullPath), err)
		}
	}
	return p, nil
}

// DefaultOutputPath swaps the extension of inPath for .ch8.
func DefaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}
