package bitwarden_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/bwlookup/internal/bitwarden"
	"github.com/systmms/bwlookup/internal/logging"
	pkgexec "github.com/systmms/bwlookup/pkg/exec"
)

func newTestClient(t *testing.T, mock *pkgexec.MockCommandExecutor) *bitwarden.Client {
	t.Helper()
	client, err := bitwarden.New(context.Background(), "bw", mock, logging.New(false, true))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestNew_ProbesExecutable(t *testing.T) {
	t.Parallel()

	mock := pkgexec.NewMockCommandExecutor()
	newTestClient(t, mock)

	calls := mock.GetCalls("bw")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"--version"}, calls[0].Args)
}

func TestNew_MissingExecutable(t *testing.T) {
	t.Parallel()

	mock := pkgexec.NewMockCommandExecutor()
	mock.AddResponse("bw-custom --version", pkgexec.MockResponse{
		Err: fmt.Errorf(`exec: "bw-custom": executable file not found in $PATH`),
	})

	_, err := bitwarden.New(context.Background(), "bw-custom", mock, logging.New(false, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Command not found: bw-custom")
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		output     string
		wantStatus string
		wantErr    string
	}{
		{
			name:       "unlocked",
			output:     `{"serverUrl":"https://vault.bitwarden.com","status":"unlocked"}`,
			wantStatus: "unlocked",
		},
		{
			name:       "locked",
			output:     `{"status":"locked"}`,
			wantStatus: "locked",
		},
		{
			name:       "unauthenticated",
			output:     `{"serverUrl":null,"lastSync":null,"userEmail":null,"userId":null,"status":"unauthenticated"}`,
			wantStatus: "unauthenticated",
		},
		{
			name:    "malformed JSON",
			output:  `not json at all`,
			wantErr: "error decoding Bitwarden status",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := pkgexec.NewMockCommandExecutor()
			mock.AddJSONResponse("bw status", tt.output)
			client := newTestClient(t, mock)

			status, err := client.Status(context.Background())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestUnlocked(t *testing.T) {
	t.Parallel()

	mock := pkgexec.NewMockCommandExecutor()
	mock.AddJSONResponse("bw status", `{"status":"unlocked"}`)
	client := newTestClient(t, mock)

	unlocked, err := client.Unlocked(context.Background())
	require.NoError(t, err)
	assert.True(t, unlocked)

	mock.AddJSONResponse("bw status", `{"status":"locked"}`)
	unlocked, err = client.Unlocked(context.Background())
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestSync(t *testing.T) {
	t.Parallel()

	mock := pkgexec.NewMockCommandExecutor()
	mock.AddResponse("bw sync", pkgexec.MockResponse{Stdout: []byte("Syncing complete.")})
	client := newTestClient(t, mock)

	require.NoError(t, client.Sync(context.Background()))
	mock.AssertCalled(t, "bw")
}

func TestSync_FailureClassified(t *testing.T) {
	t.Parallel()

	mock := pkgexec.NewMockCommandExecutor()
	mock.AddErrorResponse("bw sync", "You are not logged in.", 1)
	client := newTestClient(t, mock)

	err := client.Sync(context.Background())
	require.Error(t, err)
	assert.IsType(t, bitwarden.NotLoggedInError{}, err)
}

func TestSessionTokenInjectedIntoChildEnvironment(t *testing.T) {
	t.Parallel()

	mock := pkgexec.NewMockCommandExecutor()
	mock.AddResponse("bw sync", pkgexec.MockResponse{Stdout: []byte("Syncing complete.")})
	client := newTestClient(t, mock)
	client.SetSession("session-token-123")

	require.NoError(t, client.Sync(context.Background()))

	calls := mock.GetCalls("bw")
	syncCall := calls[len(calls)-1]
	assert.Equal(t, []string{"BW_SESSION=session-token-123"}, syncCall.Env)
}

func TestNoSessionMeansNoEnvOverride(t *testing.T) {
	t.Parallel()

	mock := pkgexec.NewMockCommandExecutor()
	mock.AddResponse("bw sync", pkgexec.MockResponse{Stdout: []byte("Syncing complete.")})
	client := newTestClient(t, mock)

	require.NoError(t, client.Sync(context.Background()))

	calls := mock.GetCalls("bw")
	syncCall := calls[len(calls)-1]
	assert.Empty(t, syncCall.Env)
}

func TestFailedCommandLogRedactsSessionToken(t *testing.T) {
	t.Parallel()

	// A failed command echoing the session token back must not leak it into
	// the debug log.
	mock := pkgexec.NewMockCommandExecutor()
	mock.AddErrorResponse("bw sync", "invalid session: session-token-123", 1)

	var log bytes.Buffer
	client, err := bitwarden.New(context.Background(), "bw", mock, logging.NewWithWriter(true, true, &log))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	client.SetSession("session-token-123")

	require.Error(t, client.Sync(context.Background()))

	assert.Contains(t, log.String(), "[REDACTED]")
	assert.NotContains(t, log.String(), "session-token-123")
}

func TestClassificationFromMergedOutput(t *testing.T) {
	t.Parallel()

	// bw writes some failures to stdout and some to stderr; both feed the
	// prefix classification.
	mock := pkgexec.NewMockCommandExecutor()
	mock.AddResponse("bw get password Google", pkgexec.MockResponse{
		Stderr: []byte("Vault is locked.\n"),
		Err:    fmt.Errorf("exit status 1"),
	})
	client := newTestClient(t, mock)

	_, err := client.GetEntry(context.Background(), "Google", "password", bitwarden.ResolvedScope{})
	require.Error(t, err)
	assert.IsType(t, bitwarden.VaultLockedError{}, err)
}
