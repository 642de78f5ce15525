// Package hardware identifies the current hardware configuration (CPU + GPU).
// The combined identifier keys stored benchmark results so runs from
// different machines are never compared against each other.
package hardware

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// execCommand allows stubbing out external tool invocations in tests.
var execCommand = exec.CommandContext

// cpuInfo allows stubbing out gopsutil in tests.
var cpuInfo = cpu.Info

// Info describes the detected (or overridden) hardware.
type Info struct {
	CPU        string
	GPU        string
	HardwareID string
}

// CPUName returns a human-readable CPU model string.
func CPUName() string {
	infos, err := cpuInfo()
	if err == nil && len(infos) > 0 && infos[0].ModelName != "" {
		return strings.TrimSpace(infos[0].ModelName)
	}
	return runtime.GOARCH
}

// GPUName returns a GPU model string, or "none" if no GPU is detected.
func GPUName() string {
	// Try NVIDIA first
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := execCommand(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Output()
	if err == nil {
		if lines := strings.Split(strings.TrimSpace(string(out)), "\n"); len(lines) > 0 && lines[0] != "" {
			// May return multiple GPUs, take first
			return strings.TrimSpace(lines[0])
		}
	}

	// On Apple Silicon the GPU is integrated with the CPU package.
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		if name := CPUName(); strings.Contains(name, "Apple") {
			fields := strings.Fields(name)
			chip := name
			if len(fields) > 1 {
				chip = fields[1]
			}
			return "Apple " + chip + " (integrated)"
		}
	}

	return "none"
}

// Detect returns the hardware info, applying overrides when provided.
func Detect(cpuOverride, gpuOverride string) Info {
	c := cpuOverride
	if c == "" {
		c = CPUName()
	}
	g := gpuOverride
	if g == "" {
		g = GPUName()
	}
	return Info{CPU: c, GPU: g, HardwareID: ID(c, g)}
}

// ID builds the combined hardware identifier string.
func ID(cpuName, gpuName string) string {
	return cpuName + " | " + gpuName
}
