// Package deploy builds and starts the application containers on the
// server, replacing the previous generation under the same fixed name.
package deploy

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/constants"
	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/security"
	"github.com/dockship/dockship/internal/ssh"
)

// remoteComposeFiles are the compose descriptor names checked on the
// server after transfer.
var remoteComposeFiles = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// Executor (re)starts the application containers on the remote host.
type Executor struct {
	session *ssh.Session
	log     *logrus.Logger
	grace   time.Duration
}

// NewExecutor creates an executor bound to the session.
func NewExecutor(session *ssh.Session, log *logrus.Logger) *Executor {
	return &Executor{
		session: session,
		log:     log,
		grace:   constants.StartGracePeriod,
	}
}

// SetGracePeriod overrides the post-start wait, for tests.
func (e *Executor) SetGracePeriod(d time.Duration) {
	e.grace = d
}

// Deploy picks a strategy from what the remote app directory contains: a
// compose descriptor wins, a bare Dockerfile falls back to a direct
// build. Neither present is a hard failure; the staging check should have
// caught it, this is the safety net after transfer.
func (e *Executor) Deploy(remoteDir string, appPort int) error {
	hasCompose, hasDockerfile, err := e.detectDescriptors(remoteDir)
	if err != nil {
		return err
	}

	switch {
	case hasCompose:
		if err := e.deployCompose(remoteDir); err != nil {
			return err
		}
	case hasDockerfile:
		if err := e.deployDockerfile(remoteDir, appPort); err != nil {
			return err
		}
	default:
		return &errs.NoBuildTargetError{Dir: remoteDir}
	}

	// Give the containers a moment before listing them. The listing is
	// for the operator, not a health gate.
	time.Sleep(e.grace)
	e.listContainers(remoteDir, hasCompose)
	return nil
}

func (e *Executor) deployCompose(remoteDir string) error {
	compose, err := e.composeCommand()
	if err != nil {
		return err
	}
	dir := security.ShellEscape(remoteDir)

	e.log.Info("Stopping previous compose stack...")
	if _, err := e.session.Run(fmt.Sprintf("cd %s && %s down", dir, compose), true); err != nil {
		return err
	}

	e.log.Info("Building images...")
	if _, err := e.session.Run(fmt.Sprintf("cd %s && %s build --pull", dir, compose), false); err != nil {
		return err
	}

	e.log.Info("Starting compose stack...")
	if _, err := e.session.Run(fmt.Sprintf("cd %s && %s up -d", dir, compose), false); err != nil {
		return err
	}
	return nil
}

func (e *Executor) deployDockerfile(remoteDir string, appPort int) error {
	dir := security.ShellEscape(remoteDir)

	e.log.Infof("Building image %s...", constants.ImageName)
	if _, err := e.session.Run(fmt.Sprintf("docker build -t %s %s", constants.ImageName, dir), false); err != nil {
		return err
	}

	e.log.Info("Removing previous container...")
	if _, err := e.session.Run(fmt.Sprintf("docker rm -f %s", constants.AppName), true); err != nil {
		return err
	}

	e.log.Infof("Starting container %s on port %d...", constants.AppName, appPort)
	cmd := fmt.Sprintf("docker run -d --name %s --restart unless-stopped -p %d:%d %s",
		constants.AppName, appPort, appPort, constants.ImageName)
	if _, err := e.session.Run(cmd, false); err != nil {
		return err
	}
	return nil
}

func (e *Executor) detectDescriptors(remoteDir string) (hasCompose, hasDockerfile bool, err error) {
	for _, name := range remoteComposeFiles {
		exists, err := e.remoteFileExists(remoteDir + "/" + name)
		if err != nil {
			return false, false, err
		}
		if exists {
			hasCompose = true
			break
		}
	}
	hasDockerfile, err = e.remoteFileExists(remoteDir + "/Dockerfile")
	if err != nil {
		return false, false, err
	}
	return hasCompose, hasDockerfile, nil
}

func (e *Executor) remoteFileExists(path string) (bool, error) {
	output, err := e.session.Run(fmt.Sprintf("test -f %s && echo exists", security.ShellEscape(path)), true)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) == "exists", nil
}

// composeCommand prefers the compose plugin over the standalone binary.
func (e *Executor) composeCommand() (string, error) {
	if output, _ := e.session.Run("docker compose version", true); strings.Contains(output, "version") {
		return "docker compose", nil
	}
	output, _ := e.session.Run("command -v docker-compose", true)
	if strings.TrimSpace(output) != "" {
		return "docker-compose", nil
	}
	return "", fmt.Errorf("no compose tool found on the server (re-run provisioning)")
}

func (e *Executor) listContainers(remoteDir string, usedCompose bool) {
	var output string
	if usedCompose {
		compose, err := e.composeCommand()
		if err != nil {
			return
		}
		output, _ = e.session.Run(fmt.Sprintf("cd %s && %s ps", security.ShellEscape(remoteDir), compose), true)
	} else {
		output, _ = e.session.Run(fmt.Sprintf("docker ps --filter name=%s", constants.AppName), true)
	}
	if output != "" {
		e.log.Infof("Running containers:\n%s", output)
	}
}
