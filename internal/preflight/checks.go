// Package preflight validates the recorder environment before a run.
package preflight

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/config"
)

// BytesPerEntry is the estimated size of one elapsed-time log line.
const BytesPerEntry = 64

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// PerfParanoidPath is read by the perf_event_paranoid check.
var PerfParanoidPath = "/proc/sys/kernel/perf_event_paranoid"

// MaxPerfParanoid is the highest perf_event_paranoid level that still lets
// an unprivileged process count its own user-space events.
const MaxPerfParanoid = 2

// RunAll executes all preflight checks for a recorder that will flush
// the given number of sessions. pmu adds the hardware counter checks.
func RunAll(cfg *config.RecorderConfig, sessions int, pmu bool) *Result {
	result := &Result{
		Checks: make([]Check, 0, 4),
		Passed: true,
	}

	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	add(checkLogDir(cfg.LogPath))
	add(checkFileDescriptors(sessions))
	// Disk space is a warning only; logs are appended at Close.
	add(checkDiskSpace(cfg.LogPath, sessions*cfg.MaxLogsNum.ElapsedTime*BytesPerEntry))
	if pmu {
		add(checkPerfParanoid(PerfParanoidPath))
	}

	return result
}

// checkLogDir verifies the log directory exists and is writable.
func checkLogDir(dir string) Check {
	info, err := os.Stat(dir)
	if err != nil {
		return Check{Name: "log_path", Message: fmt.Sprintf("%s: %v", dir, err)}
	}
	if !info.IsDir() {
		return Check{Name: "log_path", Message: fmt.Sprintf("%s is not a directory", dir)}
	}

	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return Check{Name: "log_path", Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return Check{Name: "log_path", Passed: true, Message: fmt.Sprintf("%s is writable", dir)}
}

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors(sessions int) Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: "unable to check (non-Unix or restricted)",
		}
	}

	// Each session holds two log files while flushing, plus stdio and slack.
	required := sessions*2 + 16
	actual := int(min(limit.Cur, 1<<30))

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d for %d sessions)", actual, required, sessions),
	}
}

// checkDiskSpace warns when the log directory cannot hold full sessions.
func checkDiskSpace(dir string, needBytes int) Check {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(dir, &fs); err != nil {
		return Check{
			Name:    "disk_space",
			Passed:  true,
			Warning: true,
			Message: "unable to check free space",
		}
	}

	freeMB := int(fs.Bavail * uint64(fs.Bsize) >> 20)
	needMB := needBytes>>20 + 1
	return Check{
		Name:     "disk_space",
		Required: needMB,
		Actual:   freeMB,
		Passed:   true,
		Warning:  freeMB < needMB,
		Message:  fmt.Sprintf("%d MiB free (need about %d MiB at full capacity)", freeMB, needMB),
	}
}

// checkPerfParanoid verifies perf_event_open is allowed for this process.
func checkPerfParanoid(path string) Check {
	data, err := os.ReadFile(path)
	if err != nil {
		return Check{
			Name:    "perf_event_paranoid",
			Message: fmt.Sprintf("unable to read %s: %v", path, err),
		}
	}

	level, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Check{
			Name:    "perf_event_paranoid",
			Message: fmt.Sprintf("unexpected value %q", strings.TrimSpace(string(data))),
		}
	}

	// Root bypasses the paranoid level.
	passed := level <= MaxPerfParanoid || os.Geteuid() == 0
	return Check{
		Name:    "perf_event_paranoid",
		Passed:  passed,
		Message: fmt.Sprintf("level %d (need <= %d or root)", level, MaxPerfParanoid),
	}
}

// PrintResults prints the preflight check results.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "log_path":
		return "create the directory named by log_path in the recorder config"
	case "file_descriptors":
		return "ulimit -n 8192 (or edit /etc/security/limits.conf)"
	case "disk_space":
		return "lower max_logs_num.elapsed_time or free space under log_path"
	case "perf_event_paranoid":
		return "sysctl -w kernel.perf_event_paranoid=2 (or run as root)"
	default:
		return "see documentation"
	}
}
