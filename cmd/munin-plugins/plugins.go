package main

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HWL-RobAt/contrib/internal/chrony"
	"github.com/HWL-RobAt/contrib/internal/munin"
	"github.com/HWL-RobAt/contrib/internal/raid"
	"github.com/HWL-RobAt/contrib/internal/sysstats"
	"github.com/HWL-RobAt/contrib/pkg/shell"
)

// mode extracts the munin invocation mode. Anything that is not
// autoconf or config is a fetch, matching how munin-node drives
// plugins.
func mode(args []string) string {
	if len(args) == 0 {
		return "fetch"
	}
	switch args[0] {
	case "autoconf", "config":
		return args[0]
	}
	return "fetch"
}

func pluginCmd(name, short string, run func(mode string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [autoconf|config]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(mode(args))
		},
	}
}

func newRaidCmd() *cobra.Command {
	return pluginCmd("raid", "RAID and scrub health of all storage subsystems", runRaid)
}

func newChronyCmd() *cobra.Command {
	return pluginCmd("chrony", "chronyd tracking statistics", runChrony)
}

func newLoadCmd() *cobra.Command {
	return pluginCmd("load", "Load average", runSysstats("load", munin.Graph{
		Title:    "Load average",
		Args:     "--base 1000 -l 0",
		VLabel:   "load",
		Category: "system",
	}, sysstats.Load))
}

func newMemoryCmd() *cobra.Command {
	return pluginCmd("memory", "Memory usage", runSysstats("memory", munin.Graph{
		Title:    "Memory usage",
		Args:     "--base 1024 -l 0",
		VLabel:   "Bytes",
		Category: "system",
	}, sysstats.Memory))
}

func newUptimeCmd() *cobra.Command {
	return pluginCmd("uptime", "Host uptime", runSysstats("uptime", munin.Graph{
		Title:    "Uptime",
		Args:     "--base 1000 -l 0",
		VLabel:   "uptime in days",
		Category: "system",
	}, sysstats.Uptime))
}

var raidGraph = munin.Graph{
	Title:    "RAID status",
	Args:     "--base 1000 -l 0 -u 1",
	VLabel:   "Health",
	Category: "disk",
	Info:     "1 means OK, 0 means failure",
}

func runRaid(mode string) error {
	det := newRaidDetector()
	devices := det.Aggregate(context.Background())

	switch mode {
	case "autoconf":
		munin.WriteAutoconf(os.Stdout, len(devices) > 0, "no RAID devices found")
	case "config":
		munin.WriteConfig(os.Stdout, raidGraph, raidFields(devices), cfg.DirtyConfig)
	default:
		munin.WriteValues(os.Stdout, raidFields(devices))
	}
	return nil
}

func newRaidDetector() *raid.Detector {
	det := raid.NewDetector(shell.CmdRunner{}, log)
	det.CcissGlob = cfg.CcissGlob
	det.CcissTool = cfg.CcissTool
	det.MptTool = cfg.MptTool
	det.MdstatPath = cfg.MdstatPath
	det.MountsPath = cfg.MountsPath
	det.BtrfsTool = cfg.BtrfsTool
	return det
}

func raidFields(devices []raid.DeviceStatus) []munin.Field {
	fields := make([]munin.Field, 0, len(devices))
	for _, d := range devices {
		value := "0"
		if d.Healthy {
			value = "1"
		}
		fields = append(fields, munin.Field{
			Name:    munin.FieldName(d.ID),
			Label:   d.Description,
			Warning: "1:",
			Value:   value,
		})
	}
	return fields
}

var chronyGraph = munin.Graph{
	Title:    "Chrony tracking",
	Args:     "--base 1000",
	VLabel:   "seconds / ppm",
	Category: "time",
}

func runChrony(mode string) error {
	tracker := chrony.NewTracker(shell.CmdRunner{})
	tracker.Chronyc = cfg.Chronyc
	table := chrony.TrackingFields()
	ctx := context.Background()

	switch mode {
	case "autoconf":
		munin.WriteAutoconf(os.Stdout, tracker.Available(ctx), "chronyd not responding")
	case "config":
		var vals map[string]float64
		if cfg.DirtyConfig {
			vals = tracker.Tracking(ctx, table)
		}
		munin.WriteConfig(os.Stdout, chronyGraph, chronyFields(table, vals), cfg.DirtyConfig)
	default:
		munin.WriteValues(os.Stdout, chronyFields(table, tracker.Tracking(ctx, table)))
	}
	return nil
}

func chronyFields(table []chrony.Field, vals map[string]float64) []munin.Field {
	fields := make([]munin.Field, 0, len(table))
	for _, f := range table {
		mf := munin.Field{Name: f.Name, Label: f.Label}
		if v, ok := vals[f.Name]; ok {
			mf.Value = strconv.FormatFloat(v, 'f', -1, 64)
		}
		fields = append(fields, mf)
	}
	return fields
}

func runSysstats(name string, graph munin.Graph, probe func() ([]munin.Field, error)) func(string) error {
	return func(mode string) error {
		fields, err := probe()
		if err != nil {
			log.Debug().Err(err).Str("plugin", name).Msg("probe failed")
		}

		switch mode {
		case "autoconf":
			if err != nil {
				munin.WriteAutoconf(os.Stdout, false, err.Error())
				return nil
			}
			munin.WriteAutoconf(os.Stdout, true, "")
			return nil
		case "config":
			if err != nil {
				return err
			}
			munin.WriteConfig(os.Stdout, graph, fields, cfg.DirtyConfig)
			return nil
		}
		if err != nil {
			return err
		}
		munin.WriteValues(os.Stdout, fields)
		return nil
	}
}
