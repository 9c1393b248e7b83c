package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// processEntry is one parsed row of the platform's process listing.
type processEntry struct {
	PID     int     `json:"pid"`
	User    string  `json:"user"`
	CPU     float64 `json:"cpu"`
	Memory  float64 `json:"memory"`
	Command string  `json:"command"`
}

// listProcesses runs the platform's process listing and parses it, applying
// the optional pattern filter.
func (n *MonitorNode) listProcesses(ctx context.Context) (map[string]any, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(n.config.Timeout)*time.Second)
	defer cancel()

	output, err := exec.CommandContext(runCtx, "ps", "aux").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	entries := parseProcessList(string(output), n.config.Pattern)

	processes := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		processes = append(processes, map[string]any{
			"pid":     entry.PID,
			"user":    entry.User,
			"cpu":     entry.CPU,
			"memory":  entry.Memory,
			"command": entry.Command,
		})
	}

	result := map[string]any{
		"count":     len(processes),
		"processes": processes,
	}

	if n.config.Pattern != "" {
		result["pattern"] = n.config.Pattern
	}

	return result, nil
}

// parseProcessList parses `ps aux` style output: a header line followed by
// rows of USER PID %CPU %MEM ... COMMAND, where the command spans the rest
// of the line. When pattern is non-empty only entries whose command contains
// it (case-insensitive) are returned.
func parseProcessList(output, pattern string) []processEntry {
	const commandColumn = 10

	lines := strings.Split(output, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "USER") {
		lines = lines[1:]
	}

	loweredPattern := strings.ToLower(pattern)
	entries := make([]processEntry, 0, len(lines))

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < commandColumn+1 {
			continue
		}

		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		command := strings.Join(fields[commandColumn:], " ")
		if pattern != "" && !strings.Contains(strings.ToLower(command), loweredPattern) {
			continue
		}

		cpu, _ := strconv.ParseFloat(fields[2], 64)
		memory, _ := strconv.ParseFloat(fields[3], 64)

		entries = append(entries, processEntry{
			PID:     pid,
			User:    fields[0],
			CPU:     cpu,
			Memory:  memory,
			Command: command,
		})
	}

	return entries
}
