package imagemodule

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// Stats describes the managed asset directory and the volume it lives on
type Stats struct {
	GeneratedCount  int     `json:"generated_count"`
	GeneratedBytes  int64   `json:"generated_bytes"`
	CacheEntries    int     `json:"cache_entries"`
	CacheBytes      int64   `json:"cache_bytes"`
	DiskTotalBytes  uint64  `json:"disk_total_bytes"`
	DiskFreeBytes   uint64  `json:"disk_free_bytes"`
	DiskUsedPercent float64 `json:"disk_used_percent"`
}

// Stats walks the managed image directory and reports asset counts,
// cache occupancy, and disk usage for the backing volume
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{
		CacheEntries: s.cache.Len(),
		CacheBytes:   s.cache.Cost(),
	}

	err := filepath.WalkDir(s.imageDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !strings.HasSuffix(d.Name(), generatedExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.GeneratedCount++
		stats.GeneratedBytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk image directory: %w", err)
	}

	usage, err := disk.Usage(s.imageDir)
	if err != nil {
		// Disk usage is informational; the asset counts are still valid
		return stats, nil
	}
	stats.DiskTotalBytes = usage.Total
	stats.DiskFreeBytes = usage.Free
	stats.DiskUsedPercent = usage.UsedPercent

	return stats, nil
}
