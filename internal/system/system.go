package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ImageExtensions lists the file extensions the loaders can decode.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

// IsImagePath reports whether path has one of ImageExtensions.
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DefaultWorkers returns the number of physical cores, falling back to the
// logical CPU count when gopsutil cannot tell.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// HostSummary describes the machine for the stats report.
func HostSummary() string {
	logical, _ := cpu.Counts(true)
	physical, _ := cpu.Counts(false)
	s := fmt.Sprintf("%d cores (%d logical)", physical, logical)
	if vm, err := mem.VirtualMemory(); err == nil {
		s += fmt.Sprintf(", %s RAM, %s available", humanize.IBytes(vm.Total), humanize.IBytes(vm.Available))
	}
	return s
}

// FindLatestImage returns the most recently modified image in dir. If path
// names a file, its directory is searched.
func FindLatestImage(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	searchDir := path
	if !fi.IsDir() {
		searchDir = filepath.Dir(path)
	}

	files, err := os.ReadDir(searchDir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsImagePath(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(searchDir, f.Name())
		}
	}

	if latestFile == "" {
		return "", errors.Errorf("no images found in %s", searchDir)
	}

	return latestFile, nil
}
