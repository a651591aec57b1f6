// Package errs defines the error classes dockship distinguishes when
// deciding how a run ends. Precondition problems (bad input, unreachable
// host, nothing to deploy) exit with code 1 before or without remote side
// effects; failures during execution exit with code 2.
package errs

import (
	"errors"
	"fmt"
)

// Exit codes for the dockship binary.
const (
	ExitOK           = 0
	ExitPrecondition = 1
	ExitExecution    = 2
)

// ValidationError reports bad or missing user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConnectivityError reports that the remote host could not be reached or
// authentication failed before any remote work started.
type ConnectivityError struct {
	Host string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach %s: %v", e.Host, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// MissingBuildDescriptorError reports a staged working copy with neither a
// Dockerfile nor a compose file at its root.
type MissingBuildDescriptorError struct {
	Path string
}

func (e *MissingBuildDescriptorError) Error() string {
	return fmt.Sprintf("no Dockerfile or compose file found in %s: nothing to deploy", e.Path)
}

// NoBuildTargetError reports the same condition detected on the remote app
// directory after transfer. It exists as a safety net behind the staging
// check.
type NoBuildTargetError struct {
	Dir string
}

func (e *NoBuildTargetError) Error() string {
	return fmt.Sprintf("no Dockerfile or compose file found in %s on the server", e.Dir)
}

// RemoteCommandError reports a required remote command that exited non-zero.
type RemoteCommandError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *RemoteCommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("remote command failed (exit %d): %s", e.ExitCode, e.Command)
	}
	return fmt.Sprintf("remote command failed (exit %d): %s\n%s", e.ExitCode, e.Command, e.Output)
}

// UnsupportedPlatformError reports a remote host without the supported
// package manager.
type UnsupportedPlatformError struct {
	Detail string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported server platform: %s (install Docker and nginx manually, then re-run)", e.Detail)
}

// ProxyConfigError reports a reverse-proxy configuration that failed the
// daemon's own syntax validation. LogTail carries the proxy's diagnostic
// output for the operator.
type ProxyConfigError struct {
	Err     error
	LogTail string
}

func (e *ProxyConfigError) Error() string {
	if e.LogTail == "" {
		return fmt.Sprintf("nginx configuration validation failed: %v", e.Err)
	}
	return fmt.Sprintf("nginx configuration validation failed: %v\nnginx error log:\n%s", e.Err, e.LogTail)
}

func (e *ProxyConfigError) Unwrap() error { return e.Err }

// ExitCode maps an error to the process exit code documented for the CLI.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		validation  *ValidationError
		connect     *ConnectivityError
		descriptor  *MissingBuildDescriptorError
		buildTarget *NoBuildTargetError
		platform    *UnsupportedPlatformError
	)
	switch {
	case errors.As(err, &validation),
		errors.As(err, &connect),
		errors.As(err, &descriptor),
		errors.As(err, &buildTarget),
		errors.As(err, &platform):
		return ExitPrecondition
	}
	return ExitExecution
}
