// Package ssh adapts the host/jump inventory in internal/config into the
// domain tools the agent loop dispatches: ssh_exec, ssh_exec_batch,
// log_tail, and git_query. Grounded in the source project's tools/ssh.py,
// tools/logs.py, and tools/git.py, with paramiko's synchronous client
// replaced by golang.org/x/crypto/ssh.
package ssh

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/opsctl/agentcore/internal/config"
)

// execResult is the raw outcome of running one command over one SSH
// session, before it is wrapped into an agent.ToolResult.
type execResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// dial opens an SSH connection to host, routing through its configured
// jump host when one is set. Host keys are not verified: the source
// project's SSHExecTool used paramiko's AutoAddPolicy, which accepts
// whatever key the far side presents, and this keeps the same trust model
// rather than silently becoming stricter.
func dial(cfg *config.Config, host config.HostConfig, timeout time.Duration) (*ssh.Client, error) {
	clientCfg, err := authConfig(host, timeout)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(host.Addr, portOrDefault(host.Port))

	if host.Jump == "" {
		return ssh.Dial("tcp", addr, clientCfg)
	}

	jump, ok := cfg.Jumps[host.Jump]
	if !ok {
		return nil, fmt.Errorf("host references unknown jump %q", host.Jump)
	}

	jumpCfg := &ssh.ClientConfig{
		User:            jump.User,
		Auth:            clientCfg.Auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}
	jumpAddr := net.JoinHostPort(jump.Addr, portOrDefault(jump.Port))

	jumpClient, err := ssh.Dial("tcp", jumpAddr, jumpCfg)
	if err != nil {
		return nil, fmt.Errorf("dial jump host %q: %w", host.Jump, err)
	}

	conn, err := jumpClient.Dial("tcp", addr)
	if err != nil {
		_ = jumpClient.Close()
		return nil, fmt.Errorf("dial %s via jump %q: %w", addr, host.Jump, err)
	}

	ncc, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		_ = jumpClient.Close()
		return nil, fmt.Errorf("ssh handshake via jump %q: %w", host.Jump, err)
	}

	return ssh.NewClient(ncc, chans, reqs), nil
}

func authConfig(host config.HostConfig, timeout time.Duration) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	if host.SSHKey != "" {
		keyPath := host.SSHKey
		if strings.HasPrefix(keyPath, "~") {
			home, err := os.UserHomeDir()
			if err == nil {
				keyPath = filepath.Join(home, strings.TrimPrefix(keyPath, "~"))
			}
		}
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key %q: %w", keyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key %q: %w", keyPath, err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	if agentAuth, ok := sshAgentAuth(); ok {
		authMethods = append(authMethods, agentAuth)
	}

	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no SSH authentication method available (no ssh_key configured and no SSH agent)")
	}

	return &ssh.ClientConfig{
		User:            host.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}, nil
}

func portOrDefault(port int) string {
	if port <= 0 {
		port = 22
	}
	return fmt.Sprintf("%d", port)
}

// run executes command over an established SSH connection and collects its
// exit code, stdout, and stderr.
func run(client *ssh.Client, command string, timeout time.Duration) (execResult, error) {
	session, err := client.NewSession()
	if err != nil {
		return execResult{}, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case err := <-done:
		result := execResult{Stdout: stdout.String(), Stderr: stderr.String()}
		if err == nil {
			return result, nil
		}
		if exitErr, ok := err.(*ssh.ExitError); ok {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return result, err
	case <-time.After(timeout):
		_ = session.Signal(ssh.SIGKILL)
		return execResult{}, fmt.Errorf("command timed out after %s", timeout)
	}
}
