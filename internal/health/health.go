package health

import (
	"time"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/store"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type HealthChecker struct {
	store   *store.Store
	dataDir string
}

type HealthStatus struct {
	Status  string        `json:"status"`
	Storage StorageHealth `json:"storage"`
	Device  DeviceHealth  `json:"device"`
}

type StorageHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	QueueItems   int    `json:"queue_items"`
}

type DeviceHealth struct {
	DiskPercent   float64 `json:"disk_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

func NewHealthChecker(s *store.Store, dataDir string) *HealthChecker {
	return &HealthChecker{store: s, dataDir: dataDir}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	storage := h.checkStorage()

	status := "healthy"
	if storage.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:  status,
		Storage: storage,
		Device:  h.checkDevice(),
	}
}

func (h *HealthChecker) checkStorage() StorageHealth {
	start := time.Now()
	n, err := h.store.Count(models.CollectionSyncQueue)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return StorageHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return StorageHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
		QueueItems:   n,
	}
}

func (h *HealthChecker) checkDevice() DeviceHealth {
	var d DeviceHealth
	if usage, err := disk.Usage(h.dataDir); err == nil {
		d.DiskPercent = usage.UsedPercent
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		d.MemoryPercent = vm.UsedPercent
	}
	return d
}
