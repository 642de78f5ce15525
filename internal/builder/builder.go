// Package builder drives CMake builds of the simulator source tree.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// execCommand allows stubbing out cmake invocations in tests.
var execCommand = exec.CommandContext

// Builder runs the configure and build steps for one source/build dir pair.
type Builder struct {
	SourceDir string
	BuildDir  string
	BuildType string   // CMake build type, e.g. "Release"
	CMakeArgs []string // extra cmake arguments
	Jobs      int      // parallel build jobs, 0 picks NumCPU
}

func (b *Builder) jobs() int {
	if b.Jobs > 0 {
		return b.Jobs
	}
	return runtime.NumCPU()
}

// Configure runs the cmake configure step in the build directory,
// creating it if needed. Output goes to w.
func (b *Builder) Configure(ctx context.Context, w io.Writer) error {
	if err := os.MkdirAll(b.BuildDir, 0755); err != nil {
		return fmt.Errorf("failed to create build dir: %w", err)
	}

	args := []string{"-DCMAKE_BUILD_TYPE=" + b.BuildType}
	args = append(args, b.CMakeArgs...)
	args = append(args, b.SourceDir)

	cmd := execCommand(ctx, "cmake", args...)
	cmd.Dir = b.BuildDir
	cmd.Stdout = w
	cmd.Stderr = w
	fmt.Fprintf(w, "[configure] cmake %s\n", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cmake configure failed: %w", err)
	}
	return nil
}

// Compile runs the cmake build step. Output goes to w.
func (b *Builder) Compile(ctx context.Context, w io.Writer) error {
	args := []string{"--build", ".", "-j" + strconv.Itoa(b.jobs())}
	cmd := execCommand(ctx, "cmake", args...)
	cmd.Dir = b.BuildDir
	cmd.Stdout = w
	cmd.Stderr = w
	fmt.Fprintf(w, "[build] cmake %s\n", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cmake build failed: %w", err)
	}
	return nil
}

// Build runs configure followed by compile.
func (b *Builder) Build(ctx context.Context, w io.Writer) error {
	if err := b.Configure(ctx, w); err != nil {
		return err
	}
	return b.Compile(ctx, w)
}

// ExecPath returns the path of the built simulator binary, verifying it
// exists.
func (b *Builder) ExecPath() (string, error) {
	exe := filepath.Join(b.BuildDir, "bin", "warpxm")
	if _, err := os.Stat(exe); err != nil {
		return "", fmt.Errorf("simulator executable not found at %s: %w", exe, err)
	}
	return exe, nil
}
