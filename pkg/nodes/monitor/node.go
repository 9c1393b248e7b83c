// Package monitor provides lightweight system and service health checks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsnode/opsnode/pkg/models"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	OperationResources = "resources"
	OperationProbe     = "probe"
	OperationPorts     = "ports"
	OperationProcesses = "processes"

	defaultTimeout = 10
	defaultHost    = "127.0.0.1"
	defaultPath    = "/"

	// Usage classification cutoffs, in percent.
	warningThreshold  = 70
	criticalThreshold = 90
)

// Status levels for resource and probe classification.
const (
	StatusOK       = "ok"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// defaultPorts is the well-known set scanned when none are configured.
var defaultPorts = []int{22, 80, 443, 3306, 5432, 6379, 8080}

// MonitorNode implements the Node interface for system/service health checks.
type MonitorNode struct {
	id     string
	config MonitorConfig
}

// MonitorConfig defines the configuration for monitor nodes.
type MonitorConfig struct {
	Operation string `json:"operation"`
	URL       string `json:"url,omitempty"`
	Host      string `json:"host"`
	Ports     []int  `json:"ports,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Path      string `json:"path"`
	Timeout   int    `json:"timeout"`
}

// NewMonitorNode creates a new monitor node.
func NewMonitorNode(id string, config map[string]any) (*MonitorNode, error) {
	monitorConfig := MonitorConfig{
		Operation: OperationResources,
		Host:      defaultHost,
		Path:      defaultPath,
		Timeout:   defaultTimeout,
	}

	if operation, ok := config["operation"].(string); ok {
		monitorConfig.Operation = operation
	}

	if url, ok := config["url"].(string); ok {
		monitorConfig.URL = url
	}

	if hostName, ok := config["host"].(string); ok && hostName != "" {
		monitorConfig.Host = hostName
	}

	if ports, ok := config["ports"].([]any); ok {
		for _, p := range ports {
			if port, ok := p.(float64); ok {
				monitorConfig.Ports = append(monitorConfig.Ports, int(port))
			}
		}
	}

	if pattern, ok := config["pattern"].(string); ok {
		monitorConfig.Pattern = pattern
	}

	if path, ok := config["path"].(string); ok && path != "" {
		monitorConfig.Path = path
	}

	if timeout, ok := config["timeout"].(float64); ok {
		monitorConfig.Timeout = int(timeout)
	}

	switch monitorConfig.Operation {
	case OperationResources, OperationPorts, OperationProcesses:
	case OperationProbe:
		if monitorConfig.URL == "" {
			return nil, errors.New("probe operation requires field 'url'")
		}
	default:
		return nil, fmt.Errorf("invalid operation: %s", monitorConfig.Operation)
	}

	return &MonitorNode{id: id, config: monitorConfig}, nil
}

// ID returns the node ID.
func (n *MonitorNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *MonitorNode) Type() string {
	return "monitor"
}

// Execute performs one health-check operation.
func (n *MonitorNode) Execute(ctx context.Context, ectx models.ExecutionContext, item models.Item) (models.NodeResult, error) {
	var (
		data map[string]any
		err  error
	)

	switch n.config.Operation {
	case OperationProbe:
		data, err = n.probe(ctx, ectx, item)
	case OperationPorts:
		data, err = n.scanPorts(ctx)
	case OperationProcesses:
		data, err = n.listProcesses(ctx)
	default:
		data, err = n.sampleResources(ctx)
	}

	if err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:    n.id,
		Data:      data,
		Status:    string(models.NodeStatusSuccess),
		Timestamp: time.Now().UTC(),
	}, nil
}

// sampleResources reads CPU, memory and disk usage and classifies each one.
func (n *MonitorNode) sampleResources(ctx context.Context) (map[string]any, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return nil, fmt.Errorf("failed to sample cpu: %w", err)
	}

	cpuUsage := 0.0
	if len(cpuPercents) > 0 {
		cpuUsage = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sample memory: %w", err)
	}

	du, err := disk.UsageWithContext(ctx, n.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to sample disk at %s: %w", n.config.Path, err)
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		uptime = 0
	}

	cpuStatus := classifyUsage(cpuUsage)
	memStatus := classifyUsage(vm.UsedPercent)
	diskStatus := classifyUsage(du.UsedPercent)

	return map[string]any{
		"cpu": map[string]any{
			"usagePercent": round2(cpuUsage),
			"status":       cpuStatus,
		},
		"memory": map[string]any{
			"usagePercent": round2(vm.UsedPercent),
			"totalBytes":   vm.Total,
			"usedBytes":    vm.Used,
			"status":       memStatus,
		},
		"disk": map[string]any{
			"path":         n.config.Path,
			"usagePercent": round2(du.UsedPercent),
			"totalBytes":   du.Total,
			"usedBytes":    du.Used,
			"status":       diskStatus,
		},
		"uptimeSeconds": uptime,
		"status":        worstStatus(cpuStatus, memStatus, diskStatus),
	}, nil
}

// classifyUsage maps a usage percentage onto ok/warning/critical:
// usage <= 70 is ok, usage <= 90 is warning, above that critical.
func classifyUsage(usagePercent float64) string {
	switch {
	case usagePercent > criticalThreshold:
		return StatusCritical
	case usagePercent > warningThreshold:
		return StatusWarning
	default:
		return StatusOK
	}
}

func worstStatus(statuses ...string) string {
	worst := StatusOK

	for _, status := range statuses {
		switch {
		case status == StatusCritical:
			return StatusCritical
		case status == StatusWarning:
			worst = StatusWarning
		}
	}

	return worst
}

func round2(value float64) float64 {
	return float64(int(value*100+0.5)) / 100
}

// Validate validates the node configuration.
func (n *MonitorNode) Validate(config map[string]any) error {
	if operation, ok := config["operation"].(string); ok {
		switch operation {
		case OperationResources, OperationPorts, OperationProcesses:
		case OperationProbe:
			if _, ok := config["url"]; !ok {
				return errors.New("probe operation requires field 'url'")
			}
		default:
			return fmt.Errorf("invalid operation: %s", operation)
		}
	}

	if timeout, ok := config["timeout"].(float64); ok {
		if timeout < 1 || timeout > 300 {
			return errors.New("timeout must be between 1 and 300 seconds")
		}
	}

	return nil
}
