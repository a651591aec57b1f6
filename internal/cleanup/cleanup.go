// Package cleanup reverses a deployment: containers, app files, and the
// proxy site all go away. Every step tolerates "already gone" so cleanup
// can run twice without complaint.
package cleanup

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/constants"
	"github.com/dockship/dockship/internal/nginx"
	"github.com/dockship/dockship/internal/security"
	"github.com/dockship/dockship/internal/ssh"
)

// State is the cleanup orchestrator's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
	StateExecuting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Orchestrator tears down everything a deployment created. The session is
// handed to Run, not the constructor: an aborted confirmation must leave
// the server completely untouched.
type Orchestrator struct {
	log   *logrus.Logger
	state State
}

// New creates a cleanup orchestrator in the confirmation-gate state.
func New(log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		log:   log,
		state: StateAwaitingConfirmation,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// Confirm checks the operator's typed confirmation. Anything but the
// exact token aborts back to idle with zero remote side effects.
func (o *Orchestrator) Confirm(input string) bool {
	if o.state != StateAwaitingConfirmation {
		return false
	}
	if input != constants.CleanupConfirmation {
		o.state = StateIdle
		return false
	}
	o.state = StateExecuting
	return true
}

// Run performs the teardown. Each step is best-effort: a failure is
// logged and the next step runs anyway, and Run itself never fails.
func (o *Orchestrator) Run(session *ssh.Session) {
	if o.state != StateExecuting {
		return
	}

	dir := security.ShellEscape(constants.RemoteAppDir)

	o.log.Info("Stopping compose stack...")
	_, _ = session.Run(fmt.Sprintf("cd %s && docker compose down 2>/dev/null || docker-compose down", dir), true)

	o.log.Infof("Removing container %s...", constants.AppName)
	_, _ = session.Run(fmt.Sprintf("docker rm -f %s", constants.AppName), true)

	o.log.Infof("Deleting %s...", constants.RemoteAppDir)
	_, _ = session.Run(fmt.Sprintf("sudo rm -rf %s", dir), true)

	o.log.Info("Removing nginx site...")
	nginx.NewConfigurator(session, o.log).Remove()

	o.state = StateDone
	o.log.Info("Cleanup finished")
}
