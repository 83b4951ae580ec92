package linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ardnew/softmci/pkg"
)

// =============================================================================
// UIO Device Information
// =============================================================================

// UIOInfo describes a UIO device discovered via sysfs.
type UIOInfo struct {
	Name string // Driver-provided name
	Dev  string // Device node, such as /dev/uio0
	Addr uint64 // Physical address of the first memory map
	Size int    // Size of the first memory map
}

// =============================================================================
// Sysfs Parsing
// =============================================================================

// FindUIO returns the UIO device whose name is name.
func FindUIO(name string) (UIOInfo, error) {
	return findUIO(SysfsUIOPath, DevfsUIOPath, name)
}

// ScanUIO lists every UIO device.
func ScanUIO() ([]UIOInfo, error) {
	return scanUIO(SysfsUIOPath, DevfsUIOPath)
}

func findUIO(root, devDir, name string) (UIOInfo, error) {
	devices, err := scanUIO(root, devDir)
	if err != nil {
		return UIOInfo{}, err
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return UIOInfo{}, fmt.Errorf("%w: no UIO device named %q", pkg.ErrNotSupported, name)
}

func scanUIO(root, devDir string) ([]UIOInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var devices []UIOInfo
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "uio") {
			continue
		}
		info, err := parseUIODevice(filepath.Join(root, entry.Name()))
		if err != nil {
			pkg.LogDebug(pkg.ComponentHAL, "skipping UIO device", "name", entry.Name(), "error", err)
			continue
		}
		info.Dev = filepath.Join(devDir, entry.Name())
		devices = append(devices, info)
	}
	return devices, nil
}

// parseUIODevice reads the name and first memory map of a UIO device.
func parseUIODevice(sysfsPath string) (UIOInfo, error) {
	var info UIOInfo

	name, err := readSysfsString(filepath.Join(sysfsPath, "name"))
	if err != nil {
		return info, err
	}
	info.Name = name

	mapDir := filepath.Join(sysfsPath, "maps", "map0")
	addr, err := readSysfsHex(filepath.Join(mapDir, "addr"), 64)
	if err != nil {
		return info, err
	}
	info.Addr = addr

	size, err := readSysfsHex(filepath.Join(mapDir, "size"), 32)
	if err != nil {
		return info, err
	}
	info.Size = int(size)

	return info, nil
}

// readSysfsString reads a sysfs attribute file and trims whitespace.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSysfsHex reads a hexadecimal value from a sysfs attribute file.
func readSysfsHex(path string, bitSize int) (uint64, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, bitSize)
}
