package db

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// SSHConfig holds SSH connection details
type SSHConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyPath  string
	UseAgent bool
	Timeout  time.Duration
}

// SSHTunnel represents an active SSH connection that can dial
type SSHTunnel struct {
	client *ssh.Client
}

// Logger receives tunnel diagnostics. It defaults to the standard logrus
// logger.
var Logger logrus.FieldLogger = logrus.StandardLogger()

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// authMethods collects every usable method: key file first, then the agent,
// then password and keyboard-interactive
func authMethods(config *SSHConfig, log logrus.FieldLogger) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if config.KeyPath != "" {
		keyPath := expandHome(config.KeyPath)
		key, err := os.ReadFile(keyPath)
		if err != nil {
			log.WithError(err).WithField("key", keyPath).Warn("ssh: cannot read private key")
		} else {
			signer, err := ssh.ParsePrivateKey(key)
			if err != nil && config.Password != "" {
				signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(config.Password))
			}
			if err != nil {
				log.WithError(err).Warn("ssh: cannot create signer from key")
			} else {
				log.WithField("type", signer.PublicKey().Type()).Debug("ssh: loaded private key")
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" && (config.UseAgent || config.KeyPath == "") {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			log.WithError(err).Warn("ssh: cannot reach agent")
		} else {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if config.Password != "" {
		methods = append(methods,
			ssh.Password(config.Password),
			// some servers only offer keyboard-interactive
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = config.Password
				}
				return answers, nil
			}),
		)
	}
	return methods
}

// NewSSHTunnel establishes an SSH connection
func NewSSHTunnel(config *SSHConfig) (*SSHTunnel, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("SSH host is required")
	}
	port := config.Port
	if port == 0 {
		port = 22
	}
	address := fmt.Sprintf("%s:%d", config.Host, port)
	log := Logger.WithFields(logrus.Fields{"ssh_host": address, "ssh_user": config.User})

	methods := authMethods(config, log)
	if len(methods) == 0 {
		return nil, fmt.Errorf("no valid SSH authentication methods found")
	}

	cliConfig := &ssh.ClientConfig{
		User:            config.User,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         config.Timeout,
		HostKeyAlgorithms: []string{
			ssh.KeyAlgoED25519,
			ssh.KeyAlgoRSASHA512,
			ssh.KeyAlgoRSASHA256,
			ssh.KeyAlgoRSA,
			ssh.KeyAlgoECDSA256,
			ssh.KeyAlgoECDSA384,
			ssh.KeyAlgoECDSA521,
		},
	}

	log.WithField("methods", len(methods)).Debug("ssh: dialing")
	client, err := ssh.Dial("tcp", address, cliConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SSH: %w", err)
	}
	log.Info("ssh: tunnel established")

	return &SSHTunnel{client: client}, nil
}

// Dial connects to a remote address through the tunnel
func (t *SSHTunnel) Dial(network, addr string) (net.Conn, error) {
	return t.client.Dial(network, addr)
}

// DialContext connects to a remote address through the tunnel with context support
func (t *SSHTunnel) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		conn, err := t.client.Dial(network, addr)
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		// a dial that completes after cancellation is closed here
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case res := <-ch:
		return res.conn, res.err
	}
}

// Close closes the SSH connection
func (t *SSHTunnel) Close() error {
	return t.client.Close()
}
