package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Target describes a remote host and exactly one way to authenticate to it.
type Target struct {
	Host     string
	Port     int
	User     string
	Password string
	// KeyPEM is the private key material itself, not a path.
	KeyPEM        string
	StrictHostKey bool
}

// Validate checks the target before any network activity happens.
// Exactly one of Password or KeyPEM must be set.
func (t Target) Validate() error {
	if strings.TrimSpace(t.Host) == "" {
		return errors.New(errors.ErrConfig,
			"No SSH host configured",
			"Set vision.host in the config file or export VISION_IP.")
	}
	hasPassword := t.Password != ""
	hasKey := strings.TrimSpace(t.KeyPEM) != ""
	if hasPassword && hasKey {
		return errors.New(errors.ErrConfig,
			"Both an SSH password and a private key are configured",
			"Pick one: unset PASSWORD or unset SSH_KEY.")
	}
	if !hasPassword && !hasKey {
		return errors.New(errors.ErrConfig,
			"No SSH credential configured",
			"Set PASSWORD or SSH_KEY so the host can be reached.")
	}
	return nil
}

// Client wraps an SSH connection with the resolved endpoint metadata.
type Client struct {
	*ssh.Client
	Host    string // the host/alias the caller asked for
	Address string // the resolved host:port actually dialed
}

// Dial validates the target, resolves it through ~/.ssh/config when the host
// matches an alias, and establishes the SSH connection within timeout.
// Credentials never appear in returned errors, only the host does.
func Dial(target Target, timeout time.Duration) (*Client, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	resolved := resolveTarget(target)
	config, err := buildClientConfig(resolved, timeout)
	if err != nil {
		return nil, err
	}

	address := net.JoinHostPort(resolved.Host, fmt.Sprintf("%d", resolved.Port))
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", target.Host, address),
			suggestionForDialError(err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		var hostKeyErr *HostKeyMismatchError
		if stderrors.As(err, &hostKeyErr) {
			return nil, errors.New(errors.ErrSSH,
				hostKeyErr.Error(),
				hostKeyErr.Suggestion())
		}

		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", target.Host),
			suggestionForHandshakeError(err))
	}

	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    target.Host,
		Address: address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// resolveTarget overlays HostName, Port, and User from ~/.ssh/config when the
// configured host matches an alias there. Absent or unreadable config means
// the target is used as-is.
func resolveTarget(t Target) Target {
	if t.Port == 0 {
		t.Port = 22
	}
	if t.User == "" {
		t.User = currentUser()
	}

	content, err := preprocessSSHConfig(filepath.Join(homeDir(), ".ssh", "config"))
	if err != nil {
		return t
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return t
	}
	return applySSHConfig(cfg, t)
}

// applySSHConfig overlays alias settings from an already-parsed config.
func applySSHConfig(cfg *ssh_config.Config, t Target) Target {
	alias := t.Host
	if hostname, _ := cfg.Get(alias, "HostName"); hostname != "" {
		t.Host = hostname
	}
	if port, _ := cfg.Get(alias, "Port"); port != "" {
		if p, err := net.LookupPort("tcp", port); err == nil {
			t.Port = p
		}
	}
	if user, _ := cfg.Get(alias, "User"); user != "" {
		t.User = user
	}
	return t
}

// buildClientConfig turns the validated target into an ssh.ClientConfig.
func buildClientConfig(t Target, timeout time.Duration) (*ssh.ClientConfig, error) {
	auth, err := authMethod(t)
	if err != nil {
		return nil, err
	}

	var hostKeyCallback ssh.HostKeyCallback
	if t.StrictHostKey {
		knownHostsPath := filepath.Join(homeDir(), ".ssh", "known_hosts")
		hostKeyCallback, err = createHostKeyCallback(knownHostsPath)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrSSH,
				"Couldn't load known_hosts for host key checking",
				"Check that ~/.ssh/known_hosts is readable, or disable vision.strict_host_key.")
		}
	} else {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Strict checking is opt-in via vision.strict_host_key
	}

	return &ssh.ClientConfig{
		User:            t.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

// authMethod builds the single auth method the target configures.
func authMethod(t Target) (ssh.AuthMethod, error) {
	if t.Password != "" {
		return ssh.Password(t.Password), nil
	}

	signer, err := ssh.ParsePrivateKey([]byte(t.KeyPEM))
	if err != nil {
		if strings.Contains(err.Error(), "encrypted") ||
			strings.Contains(err.Error(), "passphrase") ||
			isEncryptedPEM([]byte(t.KeyPEM)) {
			return nil, errors.New(errors.ErrConfig,
				"The configured SSH key is passphrase protected",
				"Provide a decrypted key in SSH_KEY, or use PASSWORD instead.")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"The configured SSH key can't be parsed",
			"SSH_KEY must hold the full PEM block. Literal \\n sequences are unescaped automatically.")
	}
	return ssh.PublicKeys(signer), nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Try: ssh <host>"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "unable to authenticate") || strings.Contains(errStr, "no supported methods") {
		return "Auth failed. Double-check the configured user and credential."
	}
	if strings.Contains(errStr, "host key") {
		return "Host key issue. Try connecting manually first: ssh <host>"
	}
	return "Something went wrong during SSH setup. Try: ssh <host>"
}

// isEncryptedPEM checks if PEM data contains encryption markers.
func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED")) ||
		bytes.Contains(data, []byte("Proc-Type: 4,ENCRYPTED"))
}

// preprocessSSHConfig reads the SSH config and returns content up to the
// first Match directive, which the parser doesn't understand.
func preprocessSSHConfig(configPath string) ([]byte, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			break
		}
		result = append(result, line)
	}
	return []byte(strings.Join(result, "\n")), nil
}

// HostKeyMismatchError provides helpful context when known_hosts verification fails.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns actionable steps to fix the host key mismatch.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	var wantTypes []string
	for _, k := range e.Want {
		wantTypes = append(wantTypes, k.Key.Type())
	}
	wantStr := "unknown"
	if len(wantTypes) > 0 {
		wantStr = strings.Join(wantTypes, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match what's in known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  To update known_hosts with all key types:\n"+
			"    ssh-keyscan -t rsa,ecdsa,ed25519 %s >> %s\n\n"+
			"  Or remove the old entry:\n"+
			"    ssh-keygen -R %s",
		wantStr, e.ReceivedType, host, e.KnownHosts, host)
}

// createHostKeyCallback wraps the knownhosts callback to surface mismatches
// as HostKeyMismatchError.
func createHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		dir := filepath.Dir(knownHostsPath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err != nil {
			var keyErr *knownhosts.KeyError
			if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
				return &HostKeyMismatchError{
					Hostname:     hostname,
					ReceivedType: key.Type(),
					KnownHosts:   knownHostsPath,
					Want:         keyErr.Want,
				}
			}
		}
		return err
	}, nil
}
