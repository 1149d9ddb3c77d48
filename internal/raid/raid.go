// Package raid probes storage redundancy health across hardware RAID
// controllers, Linux software RAID and btrfs scrub results, and merges
// everything into one device list for the munin raid plugin.
package raid

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// DeviceStatus is one monitored device or mount point. Healthy maps to
// value 1 in the plugin output, degraded to 0.
type DeviceStatus struct {
	ID          string
	Healthy     bool
	Description string
}

// Runner executes external status tools. Failures are reported as
// errors but detection treats them as "nothing found" per the plugin
// contract.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	Exists(name string) bool
}

// Detector holds the probe locations for all four strategies. Zero
// values are filled with the usual Linux paths by NewDetector.
type Detector struct {
	CcissGlob  string
	CcissTool  string
	MptTool    string
	MdstatPath string
	MountsPath string
	BtrfsTool  string

	runner Runner
	log    zerolog.Logger
}

func NewDetector(runner Runner, log zerolog.Logger) *Detector {
	return &Detector{
		CcissGlob:  "/dev/cciss/c*d0",
		CcissTool:  "cciss_vol_status",
		MptTool:    "mpt-status",
		MdstatPath: "/proc/mdstat",
		MountsPath: "/proc/mounts",
		BtrfsTool:  "btrfs",
		runner:     runner,
		log:        log.With().Str("component", "raid-detector").Logger(),
	}
}

// Aggregate runs all strategies in a fixed order and concatenates their
// results. Identifiers from the different strategies use distinct
// naming schemes, so no dedup across strategies is attempted.
func (d *Detector) Aggregate(ctx context.Context) []DeviceStatus {
	var all []DeviceStatus
	all = append(all, d.DetectCcissVolStatus(ctx)...)
	all = append(all, d.DetectMptStatus(ctx)...)
	all = append(all, d.DetectMdstat()...)
	all = append(all, d.DetectBtrfsScrub(ctx)...)
	d.log.Debug().Int("devices", len(all)).Msg("aggregation complete")
	return all
}

// DetectCcissVolStatus probes Smart Array style controllers: every
// device file matching CcissGlob is handed to cciss_vol_status in one
// invocation, and output line i is matched to device i. A line without
// a "status: " marker means the slot holds nothing monitorable and the
// device is dropped.
func (d *Detector) DetectCcissVolStatus(ctx context.Context) []DeviceStatus {
	devs, err := filepath.Glob(d.CcissGlob)
	if err != nil || len(devs) == 0 {
		return nil
	}
	sort.Strings(devs)
	if !d.runner.Exists(d.CcissTool) {
		return nil
	}
	out, runErr := d.runner.Run(ctx, d.CcissTool, devs...)
	if out == "" && runErr != nil {
		d.log.Debug().Err(runErr).Str("tool", d.CcissTool).Msg("status tool produced nothing")
		return nil
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var res []DeviceStatus
	for i, dev := range devs {
		if i >= len(lines) {
			break
		}
		if !strings.Contains(lines[i], "status: ") {
			continue
		}
		res = append(res, DeviceStatus{
			ID:          dev,
			Healthy:     strings.Contains(lines[i], "status: OK"),
			Description: "Hardware RAID device " + dev,
		})
	}
	return res
}

// MptID is the fixed identifier reported by DetectMptStatus; mpt-status
// only speaks for the controller as a whole.
const MptID = "mpt"

// DetectMptStatus asks mpt-status for its brief summary. Any output at
// all means the controller considers its volumes optimal; silence (or a
// failed run) is reported as degraded.
func (d *Detector) DetectMptStatus(ctx context.Context) []DeviceStatus {
	if !d.runner.Exists(d.MptTool) {
		return nil
	}
	out, _ := d.runner.Run(ctx, d.MptTool, "-s")
	return []DeviceStatus{{
		ID:          MptID,
		Healthy:     strings.TrimSpace(out) != "",
		Description: "Hardware RAID device " + MptID,
	}}
}

// DetectMdstat reads the md driver's status pseudo-file. Each array
// block is a "<name> : ..." header followed by detail lines; the first
// detail line carries the member map ("[UU]", "[U_]") where an
// underscore marks a failed member.
func (d *Detector) DetectMdstat() []DeviceStatus {
	f, err := os.Open(d.MdstatPath)
	if err != nil {
		return nil
	}
	defer f.Close()
	return parseMdstat(f)
}

func parseMdstat(r io.Reader) []DeviceStatus {
	var res []DeviceStatus
	current := ""
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if name, _, ok := strings.Cut(line, " : "); ok && !strings.HasPrefix(line, " ") {
			if name == "Personalities" {
				// preamble, not an array block
				current = ""
				continue
			}
			current = name
			continue
		}
		if current == "" || strings.TrimSpace(line) == "" {
			continue
		}
		// Only the first detail line after a header is consulted.
		res = append(res, DeviceStatus{
			ID:          current,
			Healthy:     !strings.Contains(line, "_"),
			Description: "Software RAID device " + current,
		})
		current = ""
	}
	return res
}

// scrubErrorFields are the btrfs scrub counters that must all be zero
// for a filesystem to count as healthy.
var scrubErrorFields = []string{
	"read_errors",
	"verify_errors",
	"super_errors",
	"malloc_errors",
	"uncorrectable_errors",
	"unverified_errors",
}

// DetectBtrfsScrub checks the last scrub result of every mounted btrfs
// filesystem. Mount points that were never scrubbed (or where the btrfs
// tool is unusable) are skipped rather than reported.
func (d *Detector) DetectBtrfsScrub(ctx context.Context) []DeviceStatus {
	f, err := os.Open(d.MountsPath)
	if err != nil {
		return nil
	}
	defer f.Close()
	var res []DeviceStatus
	for _, mnt := range parseBtrfsMounts(f) {
		out, _ := d.runner.Run(ctx, d.BtrfsTool, "scrub", "status", "-R", mnt)
		healthy, scrubbed := classifyScrub(out)
		if !scrubbed {
			continue
		}
		res = append(res, DeviceStatus{
			ID:          mnt,
			Healthy:     healthy,
			Description: "BTRFS in " + mnt,
		})
	}
	return res
}

// parseBtrfsMounts returns the mount point of every btrfs mount, first
// mount point per device (a multi-subvolume mount lists the same device
// repeatedly; one scrub covers them all).
func parseBtrfsMounts(r io.Reader) []string {
	seen := map[string]bool{}
	var mounts []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || fields[2] != "btrfs" {
			continue
		}
		if seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		mounts = append(mounts, fields[1])
	}
	return mounts
}

// classifyScrub decides whether scrub output describes a completed or
// running scrub and, if so, whether every error counter is zero. A
// missing counter marks the filesystem degraded rather than healthy.
func classifyScrub(out string) (healthy, scrubbed bool) {
	if !strings.Contains(strings.ToLower(out), "scrub started") {
		return false, false
	}
	counts := map[string]int{}
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			counts[k] = n
		}
	}
	for _, k := range scrubErrorFields {
		if n, ok := counts[k]; !ok || n != 0 {
			return false, true
		}
	}
	return true, true
}
