package deploy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockship/dockship/internal/ssh"
)

func TestValidatorInternalCheckNeverFails(t *testing.T) {
	// The container does not answer at all: the check logs a warning and
	// returns normally.
	mock := &ssh.MockExecutor{
		ExecFunc: func(command string) (*ssh.ExecResult, error) {
			return &ssh.ExecResult{Stdout: "000", ExitCode: 7}, nil
		},
	}
	session := ssh.NewSessionWithExecutor("host1", mock, quietLogger())

	NewValidator(session, quietLogger()).checkInternal(8080)

	require.Len(t, mock.Commands, 1)
	assert.Contains(t, mock.Commands[0], "http://127.0.0.1:8080/")
	assert.Contains(t, mock.Commands[0], "curl -s -I")
}

func TestValidatorInternalCheckUsesConfiguredPort(t *testing.T) {
	mock := &ssh.MockExecutor{
		ExecFunc: func(command string) (*ssh.ExecResult, error) {
			return &ssh.ExecResult{Stdout: "200"}, nil
		},
	}
	session := ssh.NewSessionWithExecutor("host1", mock, quietLogger())

	NewValidator(session, quietLogger()).checkInternal(3000)

	assert.Contains(t, mock.Commands[0], "127.0.0.1:3000")
}

func TestValidatorExternalCheckToleratesUnreachableHost(t *testing.T) {
	session := ssh.NewSessionWithExecutor("host1", &ssh.MockExecutor{}, quietLogger())
	v := NewValidator(session, quietLogger())

	// Reserved TLD: resolution fails fast and the validator must swallow it.
	v.checkExternal("unreachable.invalid")
}

func TestTransferMirrorsWorkingCopy(t *testing.T) {
	mock := &ssh.MockExecutor{}
	session := ssh.NewSessionWithExecutor("host1", mock, quietLogger())

	require.NoError(t, Transfer(session, "/work/app", "/opt/dockship/app", quietLogger()))
	require.Len(t, mock.Syncs, 1)
	assert.Equal(t, [2]string{"/work/app", "/opt/dockship/app"}, mock.Syncs[0])
}

func TestTransferWrapsSyncErrors(t *testing.T) {
	mock := &ssh.MockExecutor{
		SyncFunc: func(localDir, remoteDir string) error {
			return assert.AnError
		},
	}
	session := ssh.NewSessionWithExecutor("host1", mock, quietLogger())

	err := Transfer(session, "/work/app", "/opt/dockship/app", quietLogger())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "transfer"), "error should mention the transfer: %v", err)
}
