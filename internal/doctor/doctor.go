package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"kvadmin/internal/kv"
)

// PingFunc проверяет достижимость KV-сервера; подменяется в тестах.
type PingFunc func(cfg kv.Config) error

// Report собирает предполетный отчет перед обслуживанием:
// состояние узла и достижимость KV-сервера. Недостижимость
// сервера попадает в отчет, а не в ошибку.
func Report(ctx context.Context, kvCfg kv.Config, ping PingFunc) (map[string]any, error) {
	if ping == nil {
		ping = kv.Ping
	}

	hInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory info: %w", err)
	}
	ld, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load info: %w", err)
	}

	report := map[string]any{
		"hostname":     hInfo.Hostname,
		"platform":     hInfo.Platform,
		"platformVer":  hInfo.PlatformVersion,
		"kernel":       hInfo.KernelVersion,
		"uptime_sec":   hInfo.Uptime,
		"boot_time":    time.Unix(int64(hInfo.BootTime), 0).UTC().Format(time.RFC3339),
		"mem_total":    vm.Total,
		"mem_used":     vm.Used,
		"mem_used_pct": vm.UsedPercent,
		"load1":        ld.Load1,
		"load5":        ld.Load5,
		"load15":       ld.Load15,
		"kv_addr":      kvCfg.Addr(),
	}
	if err := ping(kvCfg); err != nil {
		report["kv_reachable"] = false
		report["kv_error"] = err.Error()
	} else {
		report["kv_reachable"] = true
	}
	return report, nil
}
