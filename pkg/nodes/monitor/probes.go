package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/template"
)

const portDialTimeout = 2 * time.Second

// probe checks a single service URL for reachability. Unreachable is data,
// not an error; only an unrenderable URL raises.
func (n *MonitorNode) probe(ctx context.Context, ectx models.ExecutionContext, item models.Item) (map[string]any, error) {
	url, err := template.RenderString(n.config.URL, &ectx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to render url template: %w", err)
	}

	timeout := time.Duration(n.config.Timeout) * time.Second
	started := time.Now()

	if strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") {
		return n.probeWebSocket(ctx, url, timeout, started), nil
	}

	return n.probeHTTP(ctx, url, timeout, started), nil
}

func (n *MonitorNode) probeHTTP(ctx context.Context, url string, timeout time.Duration, started time.Time) map[string]any {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return probeResult(url, false, 0, started, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return probeResult(url, false, 0, started, err)
	}

	defer func() { _ = resp.Body.Close() }()

	reachable := resp.StatusCode < http.StatusInternalServerError

	return probeResult(url, reachable, resp.StatusCode, started, nil)
}

func (n *MonitorNode) probeWebSocket(ctx context.Context, url string, timeout time.Duration, started time.Time) map[string]any {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}

		return probeResult(url, false, statusCode, started, err)
	}

	_ = conn.Close()

	return probeResult(url, true, resp.StatusCode, started, nil)
}

func probeResult(url string, reachable bool, statusCode int, started time.Time, err error) map[string]any {
	status := StatusOK
	if !reachable {
		status = StatusCritical
	}

	result := map[string]any{
		"url":       url,
		"reachable": reachable,
		"latencyMs": time.Since(started).Milliseconds(),
		"status":    status,
	}

	if statusCode > 0 {
		result["statusCode"] = statusCode
	}

	if err != nil {
		result["error"] = err.Error()
	}

	return result
}

// scanPorts dials each configured TCP port with a short timeout.
func (n *MonitorNode) scanPorts(ctx context.Context) (map[string]any, error) {
	ports := n.config.Ports
	if len(ports) == 0 {
		ports = defaultPorts
	}

	dialer := &net.Dialer{Timeout: portDialTimeout}

	open := make([]int, 0, len(ports))
	closed := make([]int, 0, len(ports))

	for _, port := range ports {
		addr := net.JoinHostPort(n.config.Host, strconv.Itoa(port))

		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			closed = append(closed, port)

			continue
		}

		_ = conn.Close()

		open = append(open, port)
	}

	sort.Ints(open)
	sort.Ints(closed)

	return map[string]any{
		"host":    n.config.Host,
		"scanned": len(ports),
		"open":    open,
		"closed":  closed,
	}, nil
}
