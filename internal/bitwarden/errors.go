package bitwarden

import (
	"fmt"
	"strings"
)

// VaultLockedError indicates the vault is locked and must be unlocked first.
type VaultLockedError struct {
	Output string
}

func (e VaultLockedError) Error() string {
	return "error accessing Bitwarden vault: vault is locked. Run 'bw unlock' to unlock the vault"
}

// NotLoggedInError indicates no Bitwarden login session exists.
type NotLoggedInError struct {
	Output string
}

func (e NotLoggedInError) Error() string {
	return "error accessing Bitwarden vault: not logged in. Run 'bw login' to login"
}

// SessionInvalidError indicates the supplied session token could not decrypt the vault.
type SessionInvalidError struct {
	Output string
}

func (e SessionInvalidError) Error() string {
	return "error accessing Bitwarden vault: failed to decrypt. Make sure BW_SESSION is set properly"
}

// ItemNotFoundError indicates the requested item does not exist in the vault.
type ItemNotFoundError struct {
	Key   string
	Scope string // human-readable scope description, empty when unscoped
}

func (e ItemNotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("no item '%s' found in %s", e.Key, e.Scope)
	}
	return fmt.Sprintf("error accessing Bitwarden vault: specified item not found: %s", e.Key)
}

// AmbiguousResultError indicates more than one vault object matched the request.
type AmbiguousResultError struct {
	Key    string
	Output string
}

func (e AmbiguousResultError) Error() string {
	return fmt.Sprintf("more than one result was found for '%s'", e.Key)
}

// ScopeNotFoundError indicates an organization or collection reference could not
// be resolved to an identifier.
type ScopeNotFoundError struct {
	Kind string // "organization" or "collection"
	Name string
}

func (e ScopeNotFoundError) Error() string {
	return fmt.Sprintf("no %s named '%s' found", e.Kind, e.Name)
}

// ScopeMismatchError indicates a resolved item does not belong to the requested
// organization and/or collection.
type ScopeMismatchError struct {
	Key   string
	Scope string
}

func (e ScopeMismatchError) Error() string {
	return fmt.Sprintf("no item '%s' in %s found", e.Key, e.Scope)
}

// FieldNotFoundError indicates a field path segment could not be resolved
// against an item's JSON structure.
type FieldNotFoundError struct {
	Field string
	Key   string
}

func (e FieldNotFoundError) Error() string {
	return fmt.Sprintf("field '%s' not found in item '%s'", e.Field, e.Key)
}

// DecodeError indicates the CLI returned output that could not be parsed as JSON.
type DecodeError struct {
	Source string // "status", "item", "search results", "collection list", "organization"
	Err    error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("error decoding Bitwarden %s: %v", e.Source, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// CLIError carries unclassified failures from the bw command.
type CLIError struct {
	Output string
	Err    error
}

func (e CLIError) Error() string {
	return fmt.Sprintf("unknown failure in 'bw' command: %s", e.Output)
}

func (e CLIError) Unwrap() error {
	return e.Err
}

// classification rules are matched in order against the prefix of the
// CLI's merged output. The wording comes from the bw tool itself and is
// inherently fragile to upstream changes.
var classifications = []struct {
	prefix string
	make   func(args []string, output string) error
}{
	{"Vault is locked.", func(args []string, output string) error {
		return VaultLockedError{Output: output}
	}},
	{"You are not logged in.", func(args []string, output string) error {
		return NotLoggedInError{Output: output}
	}},
	{"Failed to decrypt.", func(args []string, output string) error {
		return SessionInvalidError{Output: output}
	}},
	{"Not found.", func(args []string, output string) error {
		return ItemNotFoundError{Key: lastArg(args)}
	}},
	{"More than one result was found.", func(args []string, output string) error {
		return AmbiguousResultError{Key: lastArg(args), Output: output}
	}},
}

// classify maps a failed bw invocation to a typed error by matching
// well-known message prefixes.
func classify(args []string, output string, runErr error) error {
	for _, rule := range classifications {
		if strings.HasPrefix(output, rule.prefix) {
			return rule.make(args, output)
		}
	}
	return CLIError{Output: output, Err: runErr}
}

func lastArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

// isRecoverable reports whether a direct-get failure may be retried through
// the search and item-fetch fallbacks. Authentication and session failures
// always propagate unchanged.
func isRecoverable(err error) bool {
	switch err.(type) {
	case ItemNotFoundError, AmbiguousResultError, CLIError:
		return true
	}
	return false
}

// isAmbiguous reports whether the error came from a multi-match bw response.
func isAmbiguous(err error) bool {
	_, ok := err.(AmbiguousResultError)
	return ok
}

// isAmbiguousOrNotFound gates the attachment fallback ladder.
func isAmbiguousOrNotFound(err error) bool {
	switch err.(type) {
	case AmbiguousResultError, ItemNotFoundError:
		return true
	}
	return false
}
