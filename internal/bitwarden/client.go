// Package bitwarden wraps the Bitwarden CLI (bw) for credential retrieval.
//
// All vault access goes through the bw command line tool: the package never
// talks to a Bitwarden server directly and never manages login or unlock
// itself. It only forwards a session token via the BW_SESSION environment
// variable of the spawned child process.
package bitwarden

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/systmms/bwlookup/internal/errors"
	"github.com/systmms/bwlookup/internal/logging"
	"github.com/systmms/bwlookup/internal/secure"
	pkgexec "github.com/systmms/bwlookup/pkg/exec"
)

// DefaultCLIPath is the executable name used when no override is given,
// resolved through the environment's search path.
const DefaultCLIPath = "bw"

// Client invokes the Bitwarden CLI. It is not safe for concurrent use:
// lookups are strictly sequential and the scope identifier cache is
// unsynchronized.
type Client struct {
	cliPath  string
	session  *secure.SecureBuffer
	executor pkgexec.CommandExecutor
	logger   *logging.Logger

	// scope identifiers resolved from display names, memoized for the
	// lifetime of this client
	orgIDs  map[string]string
	collIDs map[string]string
}

// New creates a client for the bw executable at path and probes it with
// --version so a missing binary fails early with an install hint.
func New(ctx context.Context, path string, executor pkgexec.CommandExecutor, logger *logging.Logger) (*Client, error) {
	if path == "" {
		path = DefaultCLIPath
	}
	if executor == nil {
		executor = pkgexec.DefaultExecutor()
	}

	c := &Client{
		cliPath:  path,
		executor: executor,
		logger:   logger,
		orgIDs:   make(map[string]string),
		collIDs:  make(map[string]string),
	}

	if _, _, err := executor.Execute(ctx, nil, path, "--version"); err != nil {
		return nil, errors.WrapCommandNotFound(path, err)
	}

	return c, nil
}

// SetSession stores the session token for subsequent invocations. The token
// is kept encrypted in memory and only materialized while building a child
// process environment.
func (c *Client) SetSession(token string) {
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	if token != "" {
		c.session = secure.NewSecureBuffer([]byte(token))
	}
}

// Close releases the protected session token, if any.
func (c *Client) Close() {
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
}

// run invokes bw with the given arguments, injecting the session token into
// the child environment when set. On success the merged output is returned
// with trailing whitespace stripped; on failure the output is classified
// into a typed error by well-known message prefixes.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	var extraEnv, secrets []string
	if c.session != nil {
		locked, err := c.session.Open()
		if err != nil {
			return "", errors.UserError{
				Message: "Failed to access stored session token",
				Err:     err,
			}
		}
		extraEnv = []string{"BW_SESSION=" + locked.String()}
		secrets = []string{locked.String()}
		defer locked.Destroy()
	}

	stdout, stderr, err := c.executor.Execute(ctx, extraEnv, c.cliPath, args...)
	output := mergeOutput(stdout, stderr)
	if err != nil {
		c.logger.Debug("received error when running '%s %s': %s",
			c.cliPath, strings.Join(args, " "), logging.Redact(output, secrets))
		return "", classify(args, output, err)
	}

	return output, nil
}

func mergeOutput(stdout, stderr []byte) string {
	out := strings.TrimSpace(string(stdout))
	errOut := strings.TrimSpace(string(stderr))
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// Sync pulls the latest vault state. The call blocks and returns no value.
func (c *Client) Sync(ctx context.Context) error {
	_, err := c.run(ctx, "sync")
	return err
}

// Status runs 'bw status' and returns the reported status string.
func (c *Client) Status(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "status")
	if err != nil {
		return "", err
	}

	var status Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		return "", DecodeError{Source: "status", Err: err}
	}
	return status.Status, nil
}

// Unlocked reports whether the vault is unlocked and ready for lookups.
func (c *Client) Unlocked(ctx context.Context) (bool, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	return status == "unlocked", nil
}
