// Package lookup drives a batch of credential lookups against the Bitwarden
// CLI: it gates on an unlocked vault, applies sync and session side effects,
// resolves the scope once, and dispatches each term to either a field lookup
// or an attachment download.
package lookup

import (
	"context"
	"strings"

	"github.com/systmms/bwlookup/internal/bitwarden"
	"github.com/systmms/bwlookup/internal/config"
	bwerrors "github.com/systmms/bwlookup/internal/errors"
	"github.com/systmms/bwlookup/internal/logging"
	"github.com/systmms/bwlookup/internal/session"
	pkgexec "github.com/systmms/bwlookup/pkg/exec"
)

// Runner executes lookup batches. The zero value is not usable: Logger must
// be set, and Executor defaults to spawning real processes when nil.
type Runner struct {
	Executor pkgexec.CommandExecutor
	Logger   *logging.Logger

	// Keyring locates the session token in the OS credential store when the
	// options select the keyring session source.
	Keyring config.KeyringConfig
}

// Run resolves every term in order and returns one value per term, except
// that a multi-attachment request contributes one value per attachment. The
// batch is all-or-nothing: the first failure aborts it.
func (r *Runner) Run(ctx context.Context, terms []string, opts Options) ([]interface{}, error) {
	if len(terms) == 0 {
		return nil, bwerrors.UsageError{
			Message:    "no lookup terms given",
			Suggestion: "Pass at least one item name or id",
		}
	}

	client, err := bitwarden.New(ctx, opts.Path, r.Executor, r.Logger)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	unlocked, err := client.Unlocked(ctx)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, bwerrors.UserError{
			Message:    "Not logged into Bitwarden",
			Suggestion: "Run 'bw login', or 'bw unlock' and set the BW_SESSION environment variable first",
		}
	}

	if opts.Sync {
		if err := client.Sync(ctx); err != nil {
			return nil, err
		}
		r.Logger.Debug("vault synced")
	}

	token, err := r.sessionToken(opts)
	if err != nil {
		return nil, err
	}
	if token != "" {
		client.SetSession(token)
		r.Logger.Debug("session token %s installed", logging.Secret(token))
	}

	scope, err := client.ResolveScope(ctx, bitwarden.Scope{
		Organization: opts.Organization,
		Collection:   opts.Collection,
	})
	if err != nil {
		return nil, err
	}

	field := opts.Field
	if field == "" {
		field = config.DefaultField
	}

	values := make([]interface{}, 0, len(terms))
	for _, term := range terms {
		if opts.Attachments != nil {
			paths, err := r.fetchAttachments(ctx, client, term, opts, scope)
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				values = append(values, p)
			}
			continue
		}

		value, err := client.GetEntry(ctx, term, field, scope)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// sessionToken resolves the session token source. An empty token is valid:
// the child process still inherits this process environment either way.
func (r *Runner) sessionToken(opts Options) (string, error) {
	if opts.Session != "" {
		return session.Literal(opts.Session).Token()
	}
	if opts.SessionFrom == "keyring" {
		return session.Keyring{Service: r.Keyring.Service, Account: r.Keyring.Account}.Token()
	}
	return session.Env{}.Token()
}

// fetchAttachments downloads every requested attachment for one term. A name
// list always lands in a directory named by the output option; a single name
// may instead target the output path verbatim when it lacks a trailing slash.
func (r *Runner) fetchAttachments(ctx context.Context, client *bitwarden.Client, term string, opts Options, scope bitwarden.ResolvedScope) ([]string, error) {
	output := opts.Output
	if output == "" {
		output = term
	}
	spec := opts.Attachments

	if spec.Single {
		name := spec.Names[0]
		fileName := name
		if !strings.HasSuffix(output, "/") {
			fileName = ""
		}
		out, err := client.FetchAttachment(ctx, name, term, output, fileName, scope)
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	dir := output
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	results := make([]string, 0, len(spec.Names))
	for _, name := range spec.Names {
		out, err := client.FetchAttachment(ctx, name, term, dir, name, scope)
		if err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return results, nil
}
