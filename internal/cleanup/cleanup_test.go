package cleanup

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockship/dockship/internal/ssh"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newSession(mock *ssh.MockExecutor) *ssh.Session {
	return ssh.NewSessionWithExecutor("host1", mock, quietLogger())
}

func TestConfirmRejectsWrongInput(t *testing.T) {
	for _, input := range []string{"no", "", "YES", "y", "yes "} {
		t.Run("input "+input, func(t *testing.T) {
			mock := &ssh.MockExecutor{}
			o := New(quietLogger())

			require.Equal(t, StateAwaitingConfirmation, o.State())
			assert.False(t, o.Confirm(input))
			assert.Equal(t, StateIdle, o.State())

			// An aborted cleanup must not touch the server.
			o.Run(newSession(mock))
			assert.Empty(t, mock.Commands)
			assert.Equal(t, StateIdle, o.State())
		})
	}
}

func TestConfirmAcceptsExactToken(t *testing.T) {
	o := New(quietLogger())

	assert.True(t, o.Confirm("yes"))
	assert.Equal(t, StateExecuting, o.State())
}

func TestConfirmOnlyWorksFromTheGate(t *testing.T) {
	o := New(quietLogger())
	require.False(t, o.Confirm("no"))

	// Once aborted, a later confirmation is rejected too.
	assert.False(t, o.Confirm("yes"))
	assert.Equal(t, StateIdle, o.State())
}

func TestRunRemovesEverything(t *testing.T) {
	mock := &ssh.MockExecutor{}
	o := New(quietLogger())
	require.True(t, o.Confirm("yes"))

	o.Run(newSession(mock))

	assert.Equal(t, StateDone, o.State())
	joined := strings.Join(mock.Commands, "\n")
	assert.Contains(t, joined, "docker compose down")
	assert.Contains(t, joined, "docker rm -f dockship-app")
	assert.Contains(t, joined, "sudo rm -rf '/opt/dockship/app'")
	assert.Contains(t, joined, "sudo rm -f /etc/nginx/sites-available/dockship")
	assert.Contains(t, joined, "sudo rm -f /etc/nginx/sites-enabled/dockship")
	assert.Contains(t, joined, "sudo systemctl reload nginx")
}

func TestRunToleratesAlreadyCleanHost(t *testing.T) {
	// Every remote command fails as if nothing exists; cleanup still
	// reaches Done.
	mock := &ssh.MockExecutor{
		ExecFunc: func(command string) (*ssh.ExecResult, error) {
			return &ssh.ExecResult{Stderr: "not found\n", ExitCode: 1}, nil
		},
	}
	o := New(quietLogger())
	require.True(t, o.Confirm("yes"))

	o.Run(newSession(mock))
	assert.Equal(t, StateDone, o.State())
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	for range 2 {
		mock := &ssh.MockExecutor{
			ExecFunc: func(command string) (*ssh.ExecResult, error) {
				return &ssh.ExecResult{ExitCode: 1}, nil
			},
		}
		o := New(quietLogger())
		require.True(t, o.Confirm("yes"))
		o.Run(newSession(mock))
		assert.Equal(t, StateDone, o.State())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting-confirmation", StateAwaitingConfirmation.String())
	assert.Equal(t, "executing", StateExecuting.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown(9)", State(9).String())
}
