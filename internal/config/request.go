// Package config holds the deployment request and its validation rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dockship/dockship/internal/constants"
	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/security"
)

// DeploymentRequest carries everything one deploy needs. It is built once
// from user input (or a request file), validated, and never mutated.
type DeploymentRequest struct {
	RepoURL string `yaml:"repo_url"`
	Token   string `yaml:"token,omitempty"`
	Branch  string `yaml:"branch,omitempty"`
	User    string `yaml:"user"`
	Host    string `yaml:"host"`
	KeyPath string `yaml:"key_path,omitempty"`
	AppPort int    `yaml:"app_port,omitempty"`
}

// ApplyDefaults fills empty optional fields with the documented defaults.
func (r *DeploymentRequest) ApplyDefaults() {
	if r.Branch == "" {
		r.Branch = constants.DefaultBranch
	}
	if r.KeyPath == "" {
		r.KeyPath = constants.DefaultKeyPath
	}
	if r.AppPort == 0 {
		r.AppPort = constants.DefaultPort
	}
}

// Validate checks the request before any work starts. The first violation
// is returned as a ValidationError so the run can fail fast with exit 1.
func (r *DeploymentRequest) Validate() error {
	if strings.TrimSpace(r.RepoURL) == "" {
		return &errs.ValidationError{Field: "repository URL", Message: "cannot be empty"}
	}
	if err := security.ValidateUnixUser(r.User); err != nil {
		return &errs.ValidationError{Field: "SSH username", Message: err.Error()}
	}
	if err := security.ValidateHost(r.Host); err != nil {
		return &errs.ValidationError{Field: "host", Message: err.Error()}
	}
	if err := security.ValidateBranch(r.Branch); err != nil {
		return &errs.ValidationError{Field: "branch", Message: err.Error()}
	}
	if err := security.ValidatePort(r.AppPort); err != nil {
		return &errs.ValidationError{Field: "application port", Message: err.Error()}
	}

	keyPath, err := ExpandPath(r.KeyPath)
	if err != nil {
		return &errs.ValidationError{Field: "SSH key path", Message: err.Error()}
	}
	if _, err := os.Stat(keyPath); err != nil {
		return &errs.ValidationError{Field: "SSH key path", Message: fmt.Sprintf("key file not found at %s", keyPath)}
	}
	return nil
}

// ValidateConnection checks only the fields needed to reach the host.
// Cleanup mode uses it: no repository is involved there.
func (r *DeploymentRequest) ValidateConnection() error {
	if err := security.ValidateUnixUser(r.User); err != nil {
		return &errs.ValidationError{Field: "SSH username", Message: err.Error()}
	}
	if err := security.ValidateHost(r.Host); err != nil {
		return &errs.ValidationError{Field: "host", Message: err.Error()}
	}
	keyPath, err := ExpandPath(r.KeyPath)
	if err != nil {
		return &errs.ValidationError{Field: "SSH key path", Message: err.Error()}
	}
	if _, err := os.Stat(keyPath); err != nil {
		return &errs.ValidationError{Field: "SSH key path", Message: fmt.Sprintf("key file not found at %s", keyPath)}
	}
	return nil
}

// ExpandedKeyPath returns the key path with a leading ~ resolved. Validate
// must have succeeded first.
func (r *DeploymentRequest) ExpandedKeyPath() string {
	p, _ := ExpandPath(r.KeyPath)
	return p
}

// ExpandPath resolves a leading ~/ against the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// LoadRequestFile reads a DeploymentRequest from a YAML file for
// non-interactive runs.
func LoadRequestFile(path string) (*DeploymentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	var req DeploymentRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}
	req.ApplyDefaults()
	return &req, nil
}
