// Package provision brings the remote host to a deployable state: Docker,
// a compose tool, and nginx installed and running. Every step checks
// before it acts, so re-running a deploy is harmless.
package provision

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/ssh"
)

// Provisioner performs idempotent environment setup over one session.
type Provisioner struct {
	session *ssh.Session
	log     *logrus.Logger
}

// New creates a provisioner bound to the session.
func New(session *ssh.Session, log *logrus.Logger) *Provisioner {
	return &Provisioner{session: session, log: log}
}

// Ensure installs and starts everything a deployment needs. Only
// apt-based hosts are supported; anything else fails before touching the
// system.
func (p *Provisioner) Ensure() error {
	if !p.commandExists("apt-get") {
		return &errs.UnsupportedPlatformError{Detail: "apt-get not found"}
	}

	p.log.Info("Refreshing package index...")
	if _, err := p.session.Run("sudo apt-get update -qq", false); err != nil {
		return err
	}

	if p.commandExists("docker") {
		p.log.Info("Docker already installed, skipping")
	} else {
		p.log.Info("Installing Docker...")
		if _, err := p.session.Run("curl -fsSL https://get.docker.com | sudo sh", false); err != nil {
			return err
		}
	}

	if p.composeAvailable() {
		p.log.Info("Compose tool already installed, skipping")
	} else {
		p.log.Info("Installing Docker Compose plugin...")
		if _, err := p.session.Run("sudo apt-get install -y -qq docker-compose-plugin", false); err != nil {
			return err
		}
	}

	if p.commandExists("nginx") {
		p.log.Info("Nginx already installed, skipping")
	} else {
		p.log.Info("Installing nginx...")
		if _, err := p.session.Run("sudo apt-get install -y -qq nginx", false); err != nil {
			return err
		}
	}

	p.log.Info("Enabling services...")
	for _, service := range []string{"docker", "nginx"} {
		if _, err := p.session.Run(fmt.Sprintf("sudo systemctl enable --now %s", service), false); err != nil {
			return err
		}
	}

	// Group membership applies to future sessions; the current one keeps
	// using sudo where needed.
	if _, err := p.session.Run("sudo usermod -aG docker $USER", true); err != nil {
		return err
	}

	return nil
}

// commandExists checks for a binary on the remote PATH.
func (p *Provisioner) commandExists(name string) bool {
	output, _ := p.session.Run(fmt.Sprintf("command -v %s", name), true)
	return strings.TrimSpace(output) != ""
}

// composeAvailable checks for the compose plugin or the standalone binary.
func (p *Provisioner) composeAvailable() bool {
	if output, _ := p.session.Run("docker compose version", true); strings.Contains(output, "version") {
		return true
	}
	return p.commandExists("docker-compose")
}
