package storage

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/cenkalti/backoff/v4"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
)

// SSH connection defaults.
const (
	ConnectTimeout = 10
	MaxRetries     = 3
)

// Remote failure classes. FileNotFound maps onto errors.ErrNotFound.
var (
	ErrAuthFailed       = errors.New("ssh authentication failed")
	ErrConnectionFailed = errors.New("ssh connection failed")
	ErrTimeout          = errors.New("ssh operation timed out")
	ErrCommandFailed    = errors.New("remote command failed")
)

// Target identifies a remote host.
type Target struct {
	User string
	Host string
	Port int
}

// ParseTarget parses user@host[:port]. IPv6 hosts must be bracketed when a
// port is given: user@[::1]:2222.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, errors.Wrap(errors.ErrInvalidConfig, "remote target is empty")
	}

	var t Target
	if at := strings.LastIndex(s, "@"); at >= 0 {
		t.User = s[:at]
		if t.User == "" {
			return Target{}, errors.Wrapf(errors.ErrInvalidConfig, "remote %q: user portion is empty", s)
		}
		s = s[at+1:]
	}

	switch {
	case strings.HasPrefix(s, "["):
		end := strings.Index(s, "]")
		if end < 0 {
			return Target{}, errors.Wrapf(errors.ErrInvalidConfig, "remote %q: unclosed IPv6 bracket", s)
		}
		t.Host = s[1:end]
		rest := s[end+1:]
		if rest != "" {
			if !strings.HasPrefix(rest, ":") {
				return Target{}, errors.Wrapf(errors.ErrInvalidConfig, "remote %q: expected ':' after IPv6 host", s)
			}
			port, err := parsePort(rest[1:])
			if err != nil {
				return Target{}, err
			}
			t.Port = port
		}
	case strings.Count(s, ":") == 1:
		host, portStr, _ := strings.Cut(s, ":")
		port, err := parsePort(portStr)
		if err != nil {
			return Target{}, err
		}
		t.Host, t.Port = host, port
	default:
		// Bare IPv6 literals carry several colons and no port.
		t.Host = s
	}

	if t.Host == "" {
		return Target{}, errors.Wrapf(errors.ErrInvalidConfig, "remote %q: host is empty", s)
	}
	return t, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.Wrapf(errors.ErrInvalidConfig, "invalid port %q", s)
	}
	return port, nil
}

// Destination is the host argument passed to ssh.
func (t Target) Destination() string {
	if t.User == "" {
		return t.Host
	}
	return t.User + "@" + t.Host
}

func (t Target) String() string {
	if t.Port == 0 {
		return t.Destination()
	}
	hostPort := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	if t.User == "" {
		return hostPort
	}
	return t.User + "@" + hostPort
}

// Args returns the ssh arguments that precede the remote command.
func (t Target) Args() []string {
	var args []string
	if t.Port != 0 {
		args = append(args, "-p", strconv.Itoa(t.Port))
	}
	args = append(args,
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "ConnectTimeout="+strconv.Itoa(ConnectTimeout),
		t.Destination(),
	)
	return args
}

// Runner executes ssh with args, feeding stdin when non-nil.
type Runner interface {
	Run(ctx context.Context, args []string, stdin []byte) (stdout, stderr []byte, err error)
}

// ExecRunner runs the system ssh binary.
type ExecRunner struct {
	// Binary defaults to "ssh".
	Binary string
}

func (r ExecRunner) Run(ctx context.Context, args []string, stdin []byte) ([]byte, []byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "ssh"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// SSH is a Storage that executes shell commands on a remote host.
type SSH struct {
	target Target
	runner Runner
	// newBackOff builds the retry schedule for one operation.
	newBackOff func() backoff.BackOff
}

// SSHOption configures an SSH storage.
type SSHOption func(*SSH)

// WithRunner replaces the ssh executor.
func WithRunner(r Runner) SSHOption {
	return func(s *SSH) { s.runner = r }
}

// WithBackOff replaces the retry schedule. The returned policy is still
// capped at MaxRetries.
func WithBackOff(fn func() backoff.BackOff) SSHOption {
	return func(s *SSH) { s.newBackOff = fn }
}

// DefaultBackOff waits 500ms, 1s, 2s between attempts.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return b
}

// NewSSH returns remote storage for target.
func NewSSH(target Target, opts ...SSHOption) *SSH {
	s := &SSH{
		target:     target,
		runner:     ExecRunner{},
		newBackOff: DefaultBackOff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Target returns the remote host.
func (s *SSH) Target() Target {
	return s.target
}

// Ping runs a trivial command to confirm the host is reachable.
func (s *SSH) Ping(ctx context.Context) error {
	out, err := s.run(ctx, "echo ok", nil)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(out)) != "ok" {
		return errors.Wrapf(ErrCommandFailed, "unexpected response %q", strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *SSH) Exists(ctx context.Context, path string) (bool, error) {
	out, err := s.run(ctx, "test -e "+QuotePath(path)+" && echo exists || echo missing", nil)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) == "exists", nil
}

func (s *SSH) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.run(ctx, "cat "+QuotePath(path), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s:%s", s.target, path)
	}
	return out, nil
}

func (s *SSH) Write(ctx context.Context, path string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	if _, err := s.run(ctx, "cat > "+QuotePath(path), data); err != nil {
		return errors.Wrapf(err, "writing %s:%s", s.target, path)
	}
	return nil
}

func (s *SSH) Copy(ctx context.Context, src, dst string) error {
	_, err := s.run(ctx, "cp -p "+QuotePath(src)+" "+QuotePath(dst), nil)
	return err
}

func (s *SSH) Rename(ctx context.Context, src, dst string) error {
	_, err := s.run(ctx, "mv -f "+QuotePath(src)+" "+QuotePath(dst), nil)
	return err
}

func (s *SSH) MkdirAll(ctx context.Context, dir string) error {
	if dir == "" || dir == "." || dir == "~" {
		return nil
	}
	_, err := s.run(ctx, "mkdir -p "+QuotePath(dir), nil)
	return err
}

func (s *SSH) Remove(ctx context.Context, path string) error {
	_, err := s.run(ctx, "rm -f "+QuotePath(path), nil)
	return err
}

// run executes command remotely, retrying connection failures and timeouts.
func (s *SSH) run(ctx context.Context, command string, stdin []byte) ([]byte, error) {
	logger := logging.FromContext(ctx)
	args := append(s.target.Args(), command)

	var out []byte
	op := func() error {
		stdout, stderr, err := s.runner.Run(ctx, args, stdin)
		if err == nil {
			out = stdout
			return nil
		}
		classified := Classify(stderr, err)
		if !Retryable(classified) {
			return backoff.Permanent(classified)
		}
		return classified
	}
	notify := func(err error, wait time.Duration) {
		logger.Debug("retrying ssh command", slog.String("host", s.target.String()), slog.Duration("wait", wait), slog.Any("error", err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), MaxRetries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return out, nil
}

// Classify maps an ssh failure onto one of the remote failure classes using
// its stderr text.
func Classify(stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	lower := strings.ToLower(msg)
	if msg == "" && err != nil {
		msg = err.Error()
	}

	var class error
	switch {
	case strings.Contains(lower, "permission denied ("), strings.Contains(lower, "publickey"),
		strings.Contains(lower, "host key verification failed"), strings.Contains(lower, "authentication failed"):
		class = ErrAuthFailed
	case strings.Contains(lower, "permission denied"):
		class = errors.ErrPermissionDenied
	case strings.Contains(lower, "no such file"), strings.Contains(lower, "not found"):
		class = errors.ErrNotFound
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "could not resolve"),
		strings.Contains(lower, "connection timed out"), strings.Contains(lower, "network is unreachable"),
		strings.Contains(lower, "connection reset"), strings.Contains(lower, "connection closed"):
		class = ErrConnectionFailed
	case strings.Contains(lower, "timed out"):
		class = ErrTimeout
	default:
		class = ErrCommandFailed
	}
	return errors.Wrap(class, msg)
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrTimeout)
}

// QuotePath quotes a remote path for the shell. A leading "~/" is kept
// outside the quotes as "$HOME" so that it still expands.
func QuotePath(p string) string {
	switch {
	case p == "~":
		return `"$HOME"`
	case strings.HasPrefix(p, "~/"):
		return `"$HOME"/` + shellescape.Quote(p[2:])
	default:
		return shellescape.Quote(p)
	}
}
