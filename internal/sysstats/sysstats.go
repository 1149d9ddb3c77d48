// Package sysstats backs the load, memory and uptime plugins with
// gopsutil probes.
package sysstats

import (
	"strconv"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/HWL-RobAt/contrib/internal/munin"
)

// Load returns the 1/5/15 minute load averages as munin fields.
func Load() ([]munin.Field, error) {
	l, err := load.Avg()
	if err != nil {
		return nil, err
	}
	return loadFields(l.Load1, l.Load5, l.Load15), nil
}

func loadFields(l1, l5, l15 float64) []munin.Field {
	return []munin.Field{
		{Name: "load1", Label: "1 min", Value: formatFloat(l1)},
		{Name: "load5", Label: "5 min", Value: formatFloat(l5)},
		{Name: "load15", Label: "15 min", Value: formatFloat(l15)},
	}
}

// Memory returns physical and swap usage in bytes.
func Memory() ([]munin.Field, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	fields := memoryFields(v.Total, v.Used, v.Free, v.Available)
	if s, err := mem.SwapMemory(); err == nil && s.Total > 0 {
		fields = append(fields,
			munin.Field{Name: "swap_total", Label: "Swap total", Value: formatUint(s.Total)},
			munin.Field{Name: "swap_used", Label: "Swap used", Value: formatUint(s.Used)},
		)
	}
	return fields, nil
}

func memoryFields(total, used, free, available uint64) []munin.Field {
	return []munin.Field{
		{Name: "total", Label: "Total", Value: formatUint(total)},
		{Name: "used", Label: "Used", Value: formatUint(used)},
		{Name: "free", Label: "Free", Value: formatUint(free)},
		{Name: "available", Label: "Available", Value: formatUint(available)},
	}
}

// Uptime returns the host uptime in days.
func Uptime() ([]munin.Field, error) {
	secs, err := host.Uptime()
	if err != nil {
		return nil, err
	}
	return uptimeFields(secs), nil
}

func uptimeFields(secs uint64) []munin.Field {
	days := float64(secs) / 86400
	return []munin.Field{
		{Name: "uptime", Label: "uptime", Value: strconv.FormatFloat(days, 'f', 2, 64)},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
