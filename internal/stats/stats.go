// Package stats produces the system statistics text for the /stats
// command. Prefers fastfetch when installed; otherwise collects a
// built-in summary.
package stats

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"
	"unicode"
)

var startTime = time.Now()

type Collector struct {
	fastfetchConfig string
	logger          *slog.Logger
}

func NewCollector(fastfetchConfig string, logger *slog.Logger) *Collector {
	return &Collector{fastfetchConfig: fastfetchConfig, logger: logger}
}

// Collect returns the statistics text. Never fails: collection errors
// degrade to whatever could be gathered.
func (c *Collector) Collect(ctx context.Context) string {
	if out := c.fastfetch(ctx); out != "" {
		return out
	}
	return c.builtin(ctx)
}

func (c *Collector) fastfetch(ctx context.Context) string {
	if _, err := exec.LookPath("fastfetch"); err != nil {
		return ""
	}
	args := []string{}
	if c.fastfetchConfig != "" {
		args = append(args, "-c", c.fastfetchConfig)
	}
	cmd := exec.CommandContext(ctx, "fastfetch", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		c.logger.Warn("fastfetch failed, using built-in stats", "err", err)
		return ""
	}
	return CleanOutput(out.String())
}

func (c *Collector) builtin(ctx context.Context) string {
	hostname, _ := os.Hostname()

	info := []string{
		fmt.Sprintf("Host: %s", hostname),
		fmt.Sprintf("OS: %s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if ver := osVersion(ctx); ver != "" {
		info = append(info, fmt.Sprintf("OS Version: %s", ver))
	}
	if cpu := cpuName(); cpu != "" {
		info = append(info, fmt.Sprintf("CPU: %s (%d cores)", cpu, runtime.NumCPU()))
	} else {
		info = append(info, fmt.Sprintf("CPU: %d cores", runtime.NumCPU()))
	}
	if ram := ramInfo(); ram != "" {
		info = append(info, ram)
	}
	if disk := diskInfo(ctx); disk != "" {
		info = append(info, "Disk (/):", disk)
	}
	if up := runCmd(ctx, "uptime"); up != "" {
		info = append(info, fmt.Sprintf("Uptime: %s", up))
	}
	info = append(info, fmt.Sprintf("Bot uptime: %.0f seconds", time.Since(startTime).Seconds()))

	return strings.Join(info, "\n")
}

// ansiPattern matches terminal color/control escape sequences.
var ansiPattern = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// CleanOutput strips ANSI escapes, non-ASCII glyphs, and control
// characters from tool output so it survives a Telegram code block.
func CleanOutput(text string) string {
	text = ansiPattern.ReplaceAllString(text, "")

	var b strings.Builder
	for _, r := range text {
		if r >= 128 {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func runCmd(ctx context.Context, name string, args ...string) string {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(out.String())
}

func osVersion(ctx context.Context) string {
	switch runtime.GOOS {
	case "darwin":
		return runCmd(ctx, "sw_vers", "-productVersion")
	case "linux":
		data, err := os.ReadFile("/etc/os-release")
		if err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(line, "PRETTY_NAME=") {
					return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
				}
			}
		}
		return runCmd(ctx, "uname", "-r")
	}
	return ""
}

func cpuName() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "model name") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return ""
}

func ramInfo() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return ""
	}
	var total, available float64
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "MemTotal:") {
			fmt.Sscanf(line, "MemTotal: %f kB", &total)
		}
		if strings.HasPrefix(line, "MemAvailable:") {
			fmt.Sscanf(line, "MemAvailable: %f kB", &available)
		}
	}
	if total == 0 {
		return ""
	}
	if available > 0 {
		return fmt.Sprintf("RAM: %.1f GB used / %.1f GB", (total-available)/1024/1024, total/1024/1024)
	}
	return fmt.Sprintf("RAM: %.1f GB", total/1024/1024)
}

func diskInfo(ctx context.Context) string {
	out := runCmd(ctx, "df", "-h", "/")
	lines := strings.Split(out, "\n")
	if len(lines) >= 2 {
		return lines[1]
	}
	return ""
}
