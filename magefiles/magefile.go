//go:build mage

// Package main contains Mage build targets for spectro-itc developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a calculation expects.
var projectDirs = []string{
	"lib/ghost",
	"output",
}

// Init creates the calibration and output directories.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "spectro-itc"
	cmdPkg  = "./cmd/spectro-itc"
	calibDB = "output/calib.db"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Calib imports lib/ghost into the calibration database.
func Calib() error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "calib", "import", "--dir", "lib/ghost", "--db", calibDB)
}

// Stats prints project metrics: Go production/test LOC, the number of
// packages, and the documentation word count.
func Stats() error {
	prodLines, testLines, pkgs, err := countGoLines(".")
	if err != nil {
		return err
	}
	docs, err := filepath.Glob("*.md")
	if err != nil {
		return err
	}
	docWords, err := countWords(docs)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Packages:                       %d\n", pkgs)
	fmt.Printf("Words (documentation):          %d\n", docWords)
	return nil
}

// countGoLines walks the module and counts non-blank lines in production and
// test Go files. Directories starting with '_' or '.' are skipped, as the go
// tool does.
func countGoLines(root string) (prod, test, pkgs int, err error) {
	seen := map[string]bool{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(name) != ".go" {
			return nil
		}
		n, err := nonBlankLines(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(name, "_test.go") {
			test += n
			return nil
		}
		prod += n
		if dir := filepath.Dir(path); !seen[dir] {
			seen[dir] = true
			pkgs++
		}
		return nil
	})
	return prod, test, pkgs, err
}

func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}

// countWords counts whitespace-separated tokens in the given files.
func countWords(paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
	}
	return total, nil
}
