package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Device describes one V4L2 capture node surfaced to segno.
type Device struct {
	Path     string
	Name     string
	Readable bool
}

// ListDevices scans /dev/video* nodes and resolves their kernel-reported
// names from sysfs. Nodes the current user cannot open are still listed so
// doctor output can point at permission problems.
func ListDevices() ([]Device, error) {
	return listDevicesIn("/dev", "/sys/class/video4linux")
}

func listDevicesIn(devDir string, sysDir string) ([]Device, error) {
	nodes, err := filepath.Glob(filepath.Join(devDir, "video*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", devDir, err)
	}
	sort.Strings(nodes)

	devices := make([]Device, 0, len(nodes))
	for _, node := range nodes {
		devices = append(devices, Device{
			Path:     node,
			Name:     deviceName(sysDir, filepath.Base(node)),
			Readable: deviceReadable(node),
		})
	}
	return devices, nil
}

func deviceName(sysDir string, base string) string {
	raw, err := os.ReadFile(filepath.Join(sysDir, base, "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func deviceReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
