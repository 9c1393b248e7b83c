// Package terminal provides shell command execution, locally or over SSH.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/template"
)

const (
	ModeLocal = "local"
	ModeSSH   = "ssh"

	defaultShell   = "/bin/sh"
	defaultTimeout = 60
	defaultSSHPort = 22
)

// TerminalNode implements the Node interface for shell command execution.
type TerminalNode struct {
	id     string
	config TerminalConfig
}

// TerminalConfig defines the configuration for terminal nodes.
type TerminalConfig struct {
	Mode    string `json:"mode"`
	Command string `json:"command"`
	Cwd     string `json:"cwd,omitempty"`
	Shell   string `json:"shell"`
	Timeout int    `json:"timeout"`
	SSH     SSHConfig
}

// SSHConfig carries the connection material for the ssh mode.
type SSHConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"privateKey,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// commandResult is the captured outcome of one command run. A non-zero exit
// code is data, not an error; only spawn and connection failures raise.
type commandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewTerminalNode creates a new terminal node.
func NewTerminalNode(id string, config map[string]any) (*TerminalNode, error) {
	termConfig := TerminalConfig{
		Mode:    ModeLocal,
		Shell:   defaultShell,
		Timeout: defaultTimeout,
		SSH:     SSHConfig{Port: defaultSSHPort},
	}

	command, ok := config["command"].(string)
	if !ok || command == "" {
		return nil, errors.New("missing required field 'command'")
	}

	termConfig.Command = command

	if mode, ok := config["mode"].(string); ok {
		termConfig.Mode = mode
	}

	if cwd, ok := config["cwd"].(string); ok {
		termConfig.Cwd = cwd
	}

	if shell, ok := config["shell"].(string); ok && shell != "" {
		termConfig.Shell = shell
	}

	if timeout, ok := config["timeout"].(float64); ok {
		termConfig.Timeout = int(timeout)
	}

	if host, ok := config["host"].(string); ok {
		termConfig.SSH.Host = host
	}

	if port, ok := config["port"].(float64); ok {
		termConfig.SSH.Port = int(port)
	}

	if username, ok := config["username"].(string); ok {
		termConfig.SSH.Username = username
	}

	if password, ok := config["password"].(string); ok {
		termConfig.SSH.Password = password
	}

	if privateKey, ok := config["privateKey"].(string); ok {
		termConfig.SSH.PrivateKey = privateKey
	}

	if passphrase, ok := config["passphrase"].(string); ok {
		termConfig.SSH.Passphrase = passphrase
	}

	node := &TerminalNode{id: id, config: termConfig}
	if err := node.validateMode(); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *TerminalNode) validateMode() error {
	switch n.config.Mode {
	case ModeLocal:
		return nil
	case ModeSSH:
		if n.config.SSH.Host == "" {
			return errors.New("ssh mode requires field 'host'")
		}

		if n.config.SSH.Username == "" {
			return errors.New("ssh mode requires field 'username'")
		}

		if n.config.SSH.Password == "" && n.config.SSH.PrivateKey == "" {
			return errors.New("ssh mode requires 'password' or 'privateKey'")
		}

		return nil
	default:
		return fmt.Errorf("invalid mode: %s", n.config.Mode)
	}
}

// ID returns the node ID.
func (n *TerminalNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *TerminalNode) Type() string {
	return "terminal"
}

// Execute runs the configured command for one item.
func (n *TerminalNode) Execute(ctx context.Context, ectx models.ExecutionContext, item models.Item) (models.NodeResult, error) {
	command, err := template.RenderString(n.config.Command, &ectx, item)
	if err != nil {
		return models.NodeResult{}, fmt.Errorf("failed to render command template: %w", err)
	}

	started := time.Now()

	var res commandResult

	switch n.config.Mode {
	case ModeSSH:
		res, err = n.runSSH(ctx, command)
	default:
		res, err = n.runLocal(ctx, command)
	}

	if err != nil {
		return models.NodeResult{}, err
	}

	data := map[string]any{
		"command":    command,
		"mode":       n.config.Mode,
		"exitCode":   res.ExitCode,
		"stdout":     strings.TrimSpace(res.Stdout),
		"stderr":     strings.TrimSpace(res.Stderr),
		"success":    res.ExitCode == 0,
		"durationMs": time.Since(started).Milliseconds(),
	}

	if n.config.Mode == ModeSSH {
		data["host"] = n.config.SSH.Host
	}

	return models.NodeResult{
		NodeID:    n.id,
		Data:      data,
		Status:    string(models.NodeStatusSuccess),
		Timestamp: time.Now().UTC(),
	}, nil
}

// runLocal spawns the command through the configured shell and captures its
// streams. Exit codes come back in the result; only spawn failures raise.
func (n *TerminalNode) runLocal(ctx context.Context, command string) (commandResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(n.config.Timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, n.config.Shell, "-c", command)
	if n.config.Cwd != "" {
		cmd.Dir = n.config.Cwd
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// A killed process also surfaces as ExitError, so check the
		// deadline before inspecting the exit status.
		if runCtx.Err() != nil {
			return commandResult{}, fmt.Errorf("command timed out after %ds", n.config.Timeout)
		}

		exitErr := &exec.ExitError{}
		if !errors.As(err, &exitErr) {
			return commandResult{}, fmt.Errorf("failed to run command: %w", err)
		}
	}

	return commandResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// Validate validates the node configuration.
func (n *TerminalNode) Validate(config map[string]any) error {
	if _, ok := config["command"]; !ok {
		return errors.New("missing required field 'command'")
	}

	if mode, ok := config["mode"].(string); ok {
		if mode != ModeLocal && mode != ModeSSH {
			return fmt.Errorf("invalid mode: %s", mode)
		}
	}

	if timeout, ok := config["timeout"].(float64); ok {
		if timeout < 1 || timeout > 3600 {
			return errors.New("timeout must be between 1 and 3600 seconds")
		}
	}

	return nil
}
