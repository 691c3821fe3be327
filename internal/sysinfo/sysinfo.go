// Package sysinfo collects runtime and machine context attached to error
// reports. Collectors run inside the error paths of arbitrary host
// applications, so every sub-collector degrades to a placeholder string
// instead of failing: a collector that panicked or returned an error would
// mask the error actually being reported.
package sysinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/host"
)

// RuntimeInfo returns details about the Go runtime executing the host
// application. It never fails; facilities unavailable in the execution
// environment simply shrink the result.
func RuntimeInfo() map[string]any {
	info := map[string]any{
		"version":      runtime.Version(),
		"version_info": versionComponents(runtime.Version()),
		"path":         searchPath(),
		"platform":     runtime.GOOS,
		"arch":         runtime.GOARCH,
		"compiler":     runtime.Compiler,
	}

	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Path != "" {
		info["main_module"] = bi.Main.Path
	}

	return info
}

// MachineInfo returns details about the machine the host application runs on.
// The environment snapshot is copied by value. Each descriptor that cannot be
// determined is replaced with a placeholder and logged at warn level.
func MachineInfo(logger zerolog.Logger) map[string]any {
	machine := map[string]any{}

	hostname, err := os.Hostname()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to determine hostname")
		hostname = placeholder(err)
	}
	machine["hostname"] = hostname
	machine["environ"] = environSnapshot()

	platform, family, version, err := host.PlatformInformation()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to collect platform information")
		machine["platform"] = placeholder(err)
		machine["dist"] = placeholder(err)
	} else {
		machine["platform"] = platform
		machine["dist"] = strings.TrimSpace(family + " " + version)
	}

	if kernel, err := host.KernelVersion(); err != nil {
		logger.Warn().Err(err).Msg("Failed to collect kernel version")
		machine["version"] = placeholder(err)
	} else {
		machine["version"] = kernel
	}

	if arch, err := host.KernelArch(); err != nil {
		logger.Warn().Err(err).Msg("Failed to collect kernel architecture")
		machine["arch"] = placeholder(err)
	} else {
		machine["arch"] = arch
	}

	// Go binaries do not reliably link a C library, and when one is linked
	// its version is not exposed to the runtime.
	machine["libc_ver"] = "<not available>"
	machine["node"] = hostname

	return machine
}

// environSnapshot copies the process environment into a fresh map.
func environSnapshot() map[string]string {
	environ := os.Environ()
	snapshot := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		snapshot[key] = value
	}
	return snapshot
}

// versionComponents splits a runtime version like "go1.25.3" into its release
// components. Development toolchains report versions that do not follow the
// release form; those come back as a single component.
func versionComponents(version string) []string {
	return strings.Split(strings.TrimPrefix(version, "go"), ".")
}

// searchPath lists the roots the toolchain resolves packages from.
func searchPath() []string {
	path := []string{runtime.GOROOT()}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		path = append(path, filepath.SplitList(gopath)...)
	}
	return path
}

func placeholder(err error) string {
	return fmt.Sprintf("<could not determine: %v>", err)
}
