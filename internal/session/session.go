// Package session resolves the Bitwarden session token from its configured
// source. The token is what 'bw unlock' prints; without it every vault read
// fails with a locked-vault error.
package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	bwerrors "github.com/systmms/bwlookup/internal/errors"
)

// EnvVar is the environment variable bw itself reads the session token from.
const EnvVar = "BW_SESSION"

// Source yields a session token. An empty token with a nil error means the
// source has nothing, which is fine when the bw process inherits BW_SESSION
// from the shell.
type Source interface {
	Token() (string, error)
}

// Literal wraps a token passed directly in the invocation options.
type Literal string

func (l Literal) Token() (string, error) {
	return string(l), nil
}

// Env reads the token from the BW_SESSION environment variable.
type Env struct{}

func (Env) Token() (string, error) {
	return os.Getenv(EnvVar), nil
}

// Keyring reads the token from the OS credential store.
type Keyring struct {
	Service string
	Account string
}

func (k Keyring) Token() (string, error) {
	token, err := keyring.Get(k.Service, k.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", bwerrors.UserError{
				Message:    fmt.Sprintf("No session token stored under service '%s', account '%s'", k.Service, k.Account),
				Suggestion: "Store the output of 'bw unlock --raw' in your OS credential store under that service and account",
				Err:        err,
			}
		}
		return "", bwerrors.UserError{
			Message:    "Failed to read session token from the OS credential store",
			Details:    err.Error(),
			Suggestion: "Make sure a credential store service is running and unlocked",
			Err:        err,
		}
	}
	return token, nil
}
