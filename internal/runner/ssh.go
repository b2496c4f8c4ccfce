package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Target is an SSH destination in user@host[:port] form.
type Target struct {
	User string
	Host string
	Port string
}

// ParseTarget parses "user@host" or "user@host:port". The port defaults
// to 22.
func ParseTarget(s string) (Target, error) {
	user, hostPort, ok := strings.Cut(s, "@")
	if !ok || user == "" || hostPort == "" {
		return Target{}, fmt.Errorf("invalid SSH target %q: want user@host[:port]", s)
	}

	t := Target{User: user, Host: hostPort, Port: "22"}
	if h, p, err := net.SplitHostPort(hostPort); err == nil {
		t.Host, t.Port = h, p
	}
	if t.Host == "" {
		return Target{}, fmt.Errorf("invalid SSH target %q: empty host", s)
	}
	return t, nil
}

func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, t.Port)
}

func (t Target) String() string {
	if t.Port == "22" {
		return t.User + "@" + t.Host
	}
	return t.User + "@" + t.Addr()
}

// SSHOptions controls authentication and host-key checking.
type SSHOptions struct {
	// KeyFile is tried before the default ~/.ssh keys.
	KeyFile string
	// KnownHosts defaults to ~/.ssh/known_hosts.
	KnownHosts string
	// Insecure skips host-key verification.
	Insecure bool
	Timeout  time.Duration
}

// SSH runs commands on a remote host over one shared connection.
type SSH struct {
	client  *ssh.Client
	target  Target
	log     logrus.FieldLogger
	timeout time.Duration
}

// DialSSH connects to target. Keys come from the SSH agent, opts.KeyFile
// and the default key files, in that order.
func DialSSH(ctx context.Context, target Target, opts SSHOptions, log logrus.FieldLogger) (*SSH, error) {
	cfg, err := clientConfig(target.User, opts)
	if err != nil {
		return nil, err
	}
	return dial(ctx, target, cfg, opts.Timeout, log)
}

func dial(ctx context.Context, target Target, cfg *ssh.ClientConfig, timeout time.Duration, log logrus.FieldLogger) (*SSH, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", target.Addr(), err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, target.Addr(), cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", target, err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SSH{
		client:  ssh.NewClient(c, chans, reqs),
		target:  target,
		log:     log.WithFields(logrus.Fields{"package": "runner", "target": target.String()}),
		timeout: timeout,
	}, nil
}

func (s *SSH) Close() error {
	return s.client.Close()
}

// Run executes the command through the remote user's shell. Arguments are
// single-quoted, so they reach the remote program unchanged.
func (s *SSH) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	command := shellJoin(name, args...)
	log := s.log.WithField("command", command)

	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	start := time.Now()
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("Remote command timed out")
			return "", fmt.Errorf("%s: %w after %s", command, ErrTimeout, s.timeout)
		}
		return "", ctx.Err()
	case err = <-done:
	}
	log = log.WithField("duration", time.Since(start))

	var exitErr *ssh.ExitError
	switch {
	case errors.As(err, &exitErr):
		log.WithField("exit_code", exitErr.ExitStatus()).Debug("Remote command failed")
		return "", &ExitError{
			Command:  command,
			ExitCode: exitErr.ExitStatus(),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	case err != nil:
		return "", fmt.Errorf("run %s on %s: %w", command, s.target, err)
	}

	log.Debug("Remote command finished")
	return stdout.String(), nil
}

// shellJoin renders a POSIX shell command line. Words made only of safe
// characters stay bare.
func shellJoin(name string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{name}, args...) {
		words = append(words, shellQuote(w))
	}
	return strings.Join(words, " ")
}

func shellQuote(w string) string {
	if w != "" && strings.Trim(w, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=:,+") == "" {
		return w
	}
	return "'" + strings.ReplaceAll(w, "'", `'\''`) + "'"
}

func clientConfig(user string, opts SSHOptions) (*ssh.ClientConfig, error) {
	home, _ := os.UserHomeDir()

	var signers []ssh.Signer
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			if s, err := agent.NewClient(conn).Signers(); err == nil {
				signers = append(signers, s...)
			}
		}
	}

	keyFiles := []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
	if opts.KeyFile != "" {
		keyFiles = append([]string{opts.KeyFile}, keyFiles...)
	}
	for _, path := range keyFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			if path == opts.KeyFile {
				return nil, fmt.Errorf("read SSH key: %w", err)
			}
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			if path == opts.KeyFile {
				return nil, fmt.Errorf("parse SSH key %s: %w", path, err)
			}
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) == 0 {
		return nil, errors.New("no SSH keys available: no agent and no key files")
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if !opts.Insecure {
		path := opts.KnownHosts
		if path == "" {
			path = filepath.Join(home, ".ssh", "known_hosts")
		}
		cb, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
		hostKey = cb
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signers...)},
		HostKeyCallback: hostKey,
		Timeout:         30 * time.Second,
	}, nil
}
