// Package scanner finds Solidity sources under a directory. It honours
// .sclassignore files with gitignore-style patterns.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Relative path from root, slash separated
	FullPath string // Absolute path
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	Extensions      []string // Extensions to keep, with the dot; empty keeps everything
	DefaultExcludes []string // Directory names never descended into
	IgnoreFileName  string   // Name of the ignore file (default: .sclassignore)
}

// DefaultOptions returns scanner options for Solidity projects.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		Extensions:     []string{".sol"},
		IgnoreFileName: ".sclassignore",
		DefaultExcludes: []string{
			"node_modules",
			".git",
			"artifacts",
			"cache",
			"out",
			"typechain",
			"typechain-types",
			"coverage",
			"broadcast",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".sclassignore"
	}
	return &Scanner{opts: opts}
}

// Scan walks root and returns matching files sorted by path. Ignore files
// found in nested directories apply to everything below them.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	rules := map[string][]IgnorePattern{}
	var files []FileInfo

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." {
				if s.opts.SkipHidden && isHidden(d.Name()) || s.isDefaultExcluded(d.Name()) {
					return filepath.SkipDir
				}
				if s.ignored(rel, true, rules) {
					return filepath.SkipDir
				}
			}
			patterns, err := s.loadIgnorePatterns(path, rel)
			if err != nil {
				return fmt.Errorf("loading ignore patterns: %w", err)
			}
			if len(patterns) > 0 {
				rules[rel] = patterns
			}
			return nil
		}

		if s.opts.SkipHidden && isHidden(d.Name()) {
			return nil
		}
		// Symlinks are not followed.
		if d.Type()&fs.ModeSymlink != 0 || !s.hasExtension(d.Name()) {
			return nil
		}
		if s.ignored(rel, false, rules) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{Path: rel, FullPath: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

func (s *Scanner) hasExtension(name string) bool {
	if len(s.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, want := range s.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// ignored applies the rules of every ancestor directory, outermost first,
// so that deeper files and later lines win.
func (s *Scanner) ignored(rel string, isDir bool, rules map[string][]IgnorePattern) bool {
	dirs := []string{"."}
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		dirs = append(dirs, strings.Join(parts[:i], "/"))
	}

	ignored := false
	for _, dir := range dirs {
		for _, p := range rules[dir] {
			if p.Match(rel, isDir) {
				ignored = !p.IsNegation()
			}
		}
	}
	return ignored
}

// loadIgnorePatterns reads the ignore file in dir. A missing file yields no
// patterns.
func (s *Scanner) loadIgnorePatterns(dir, rel string) ([]IgnorePattern, error) {
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	base := ""
	if rel != "." {
		base = rel
	}

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line, base))
	}
	return patterns, sc.Err()
}

// Scan scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

// ScanWithOptions scans a directory with custom options.
func ScanWithOptions(root string, opts Options) ([]FileInfo, error) {
	return New(opts).Scan(root)
}
