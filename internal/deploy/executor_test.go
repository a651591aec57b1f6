package deploy

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/ssh"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// remoteFiles simulates the remote app directory content for the
// descriptor probes the executor issues.
func remoteFiles(present ...string) func(command string) (*ssh.ExecResult, error) {
	return func(command string) (*ssh.ExecResult, error) {
		if strings.HasPrefix(command, "test -f ") {
			for _, name := range present {
				if strings.Contains(command, "/"+name+"'") {
					return &ssh.ExecResult{Stdout: "exists\n"}, nil
				}
			}
			return &ssh.ExecResult{ExitCode: 1}, nil
		}
		if command == "docker compose version" {
			return &ssh.ExecResult{Stdout: "Docker Compose version v2.27.0\n"}, nil
		}
		return &ssh.ExecResult{}, nil
	}
}

func newExecutor(mock *ssh.MockExecutor) *Executor {
	session := ssh.NewSessionWithExecutor("host1", mock, quietLogger())
	e := NewExecutor(session, quietLogger())
	e.SetGracePeriod(0)
	return e
}

func TestDeploySelectsComposeStrategy(t *testing.T) {
	mock := &ssh.MockExecutor{ExecFunc: remoteFiles("docker-compose.yml")}

	require.NoError(t, newExecutor(mock).Deploy("/opt/dockship/app", 8080))

	joined := strings.Join(mock.Commands, "\n")
	assert.Contains(t, joined, "docker compose down")
	assert.Contains(t, joined, "docker compose build --pull")
	assert.Contains(t, joined, "docker compose up -d")
	assert.NotContains(t, joined, "docker build -t", "compose strategy must not run a direct build")
}

func TestDeployComposeWinsOverDockerfile(t *testing.T) {
	mock := &ssh.MockExecutor{ExecFunc: remoteFiles("compose.yaml", "Dockerfile")}

	require.NoError(t, newExecutor(mock).Deploy("/opt/dockship/app", 8080))

	assert.Contains(t, strings.Join(mock.Commands, "\n"), "docker compose up -d")
	assert.NotContains(t, strings.Join(mock.Commands, "\n"), "docker run")
}

func TestDeploySelectsDirectBuildStrategy(t *testing.T) {
	mock := &ssh.MockExecutor{ExecFunc: remoteFiles("Dockerfile")}

	require.NoError(t, newExecutor(mock).Deploy("/opt/dockship/app", 3000))

	joined := strings.Join(mock.Commands, "\n")
	assert.Contains(t, joined, "docker build -t dockship-app")
	assert.Contains(t, joined, "docker rm -f dockship-app")
	// Internal and external port bind to the same configured number.
	assert.Contains(t, joined, "-p 3000:3000")
	assert.Contains(t, joined, "--name dockship-app")
	assert.NotContains(t, joined, "docker compose")
}

func TestDeployFailsWithoutBuildTarget(t *testing.T) {
	mock := &ssh.MockExecutor{ExecFunc: remoteFiles()}

	err := newExecutor(mock).Deploy("/opt/dockship/app", 8080)

	var targetErr *errs.NoBuildTargetError
	require.True(t, errors.As(err, &targetErr), "expected NoBuildTargetError, got %v", err)

	// Only probes ran, no build or run commands.
	for _, command := range mock.Commands {
		assert.True(t, strings.HasPrefix(command, "test -f "), "unexpected command %q", command)
	}
}

func TestDeployPreviousContainerAbsenceIsTolerated(t *testing.T) {
	mock := &ssh.MockExecutor{
		ExecFunc: func(command string) (*ssh.ExecResult, error) {
			if strings.HasPrefix(command, "docker rm -f") {
				return &ssh.ExecResult{Stderr: "No such container\n", ExitCode: 1}, nil
			}
			return remoteFiles("Dockerfile")(command)
		},
	}

	require.NoError(t, newExecutor(mock).Deploy("/opt/dockship/app", 8080))
	assert.Contains(t, strings.Join(mock.Commands, "\n"), "docker run -d")
}

func TestDeployListsContainersAfterStart(t *testing.T) {
	mock := &ssh.MockExecutor{ExecFunc: remoteFiles("Dockerfile")}

	require.NoError(t, newExecutor(mock).Deploy("/opt/dockship/app", 8080))
	assert.Contains(t, strings.Join(mock.Commands, "\n"), "docker ps --filter name=dockship-app")
}
