package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/opsnode/opsnode/pkg/await"
	"golang.org/x/crypto/ssh"
)

// runSSH opens a session on the configured host and races the remote command
// against the node timeout. Losing the race tears the connection down; the
// remote side is not cancelled gracefully.
func (n *TerminalNode) runSSH(ctx context.Context, command string) (commandResult, error) {
	timeout := time.Duration(n.config.Timeout) * time.Second

	clientConfig, err := n.sshClientConfig(timeout)
	if err != nil {
		return commandResult{}, err
	}

	addr := net.JoinHostPort(n.config.SSH.Host, strconv.Itoa(n.config.SSH.Port))

	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return commandResult{}, fmt.Errorf("ssh connection to %s failed: %w", addr, err)
	}
	defer func() { _ = client.Close() }()

	result, err := await.Do(ctx, timeout, func(ctx context.Context) (commandResult, error) {
		// Tear the connection down when the race is lost so the session
		// goroutine unblocks instead of waiting on a dead channel.
		stop := context.AfterFunc(ctx, func() { _ = client.Close() })
		defer stop()

		return runSession(client, command)
	})
	if err != nil {
		if errors.Is(err, await.ErrTimeout) {
			return commandResult{}, fmt.Errorf("ssh command on %s timed out after %ds", n.config.SSH.Host, n.config.Timeout)
		}

		return commandResult{}, err
	}

	return result, nil
}

func runSession(client *ssh.Client, command string) (commandResult, error) {
	session, err := client.NewSession()
	if err != nil {
		return commandResult{}, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer

	session.Stdout = &stdout
	session.Stderr = &stderr

	exitCode := 0

	err = session.Run(command)
	if err != nil {
		exitErr := &ssh.ExitError{}
		if !errors.As(err, &exitErr) {
			return commandResult{}, fmt.Errorf("ssh command failed: %w", err)
		}

		exitCode = exitErr.ExitStatus()
	}

	return commandResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

func (n *TerminalNode) sshClientConfig(timeout time.Duration) (*ssh.ClientConfig, error) {
	auth := make([]ssh.AuthMethod, 0, 2)

	if n.config.SSH.PrivateKey != "" {
		signer, err := parsePrivateKey([]byte(n.config.SSH.PrivateKey), n.config.SSH.Passphrase)
		if err != nil {
			return nil, err
		}

		auth = append(auth, ssh.PublicKeys(signer))
	}

	if n.config.SSH.Password != "" {
		auth = append(auth, ssh.Password(n.config.SSH.Password))
	}

	return &ssh.ClientConfig{
		User: n.config.SSH.Username,
		Auth: auth,
		// Hosts are user-supplied per invocation; there is no known_hosts
		// store to verify against.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         timeout,
	}, nil
}

func parsePrivateKey(pemBytes []byte, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to parse encrypted private key: %w", err)
		}

		return signer, nil
	}

	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return signer, nil
}
