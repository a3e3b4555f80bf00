//go:build mage

// Package main contains Mage build targets for lexgraph developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir   = "bin"
	binName  = "lexgraph"
	cmdPkg   = "./cmd/lexgraph"
	dataDir  = "data"
	snapsDir = "data/snapshots"
)

// Init creates the data directory and an empty seed snapshot.
func Init() error {
	mg.Deps(Build)
	if err := os.MkdirAll(snapsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", snapsDir, err)
	}
	return sh.RunV(filepath.Join(binDir, binName), "--data-dir", dataDir, "snapshot", "init")
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
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
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Lint runs go vet over every package.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Lint and Test.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Stats prints non-blank Go lines per package, production and test code
// counted separately.
func Stats() error {
	type count struct{ prod, test int }
	pkgs := map[string]*count{}

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || (d.Name() != "." && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := nonBlankLines(path)
		if err != nil {
			return err
		}
		dir := filepath.Dir(path)
		if pkgs[dir] == nil {
			pkgs[dir] = &count{}
		}
		if strings.HasSuffix(path, "_test.go") {
			pkgs[dir].test += n
		} else {
			pkgs[dir].prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(pkgs))
	for d := range pkgs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var total count
	fmt.Printf("%-28s  %6s  %6s\n", "Package", "Prod", "Test")
	for _, d := range dirs {
		c := pkgs[d]
		total.prod += c.prod
		total.test += c.test
		fmt.Printf("%-28s  %6d  %6d\n", d, c.prod, c.test)
	}
	fmt.Printf("%-28s  %6d  %6d\n", "total", total.prod, total.test)
	return nil
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
