// pkg/ndk/host.go
package ndk

import (
	"runtime"
	"strings"
)

// HostOS returns the host system name used in archive names
// ("Linux", "Darwin", "Windows").
func HostOS() string {
	return HostOSFor(runtime.GOOS)
}

// HostOSFor maps a GOOS value to its system name.
func HostOSFor(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	}
	if goos == "" {
		return ""
	}
	return strings.ToUpper(goos[:1]) + goos[1:]
}
