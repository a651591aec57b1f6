package ssh

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/security"
)

// Syncer mirrors a local directory tree to a remote path.
type Syncer interface {
	Sync(localDir, remoteDir string) error
}

// Uploader writes file content to a remote path.
type Uploader interface {
	UploadContent(content, remotePath string) error
}

// Session is the single remote-execution handle every component goes
// through. It owns logging and failure policy for remote commands: a
// non-zero exit is fatal unless the call site tolerates it.
type Session struct {
	Host     string
	exec     Executor
	syncer   Syncer
	uploader Uploader
	log      *logrus.Logger
}

// NewSession creates a session over an established client.
func NewSession(client *Client, log *logrus.Logger) *Session {
	return &Session{
		Host:     client.Host,
		exec:     client,
		syncer:   client,
		uploader: client,
		log:      log,
	}
}

// NewSessionWithExecutor creates a session over any executor, for tests.
func NewSessionWithExecutor(host string, exec Executor, log *logrus.Logger) *Session {
	s := &Session{Host: host, exec: exec, log: log}
	if syncer, ok := exec.(Syncer); ok {
		s.syncer = syncer
	}
	if uploader, ok := exec.(Uploader); ok {
		s.uploader = uploader
	}
	return s
}

// ConnectCheck runs a trivial remote command to prove the host is
// reachable and authentication works. It gates every later remote step.
func (s *Session) ConnectCheck() error {
	result, err := s.exec.Exec("echo dockship")
	if err != nil {
		return &errs.ConnectivityError{Host: s.Host, Err: err}
	}
	if result.ExitCode != 0 {
		return &errs.ConnectivityError{Host: s.Host, Err: &errs.RemoteCommandError{
			Command:  "echo dockship",
			ExitCode: result.ExitCode,
			Output:   result.Combined(),
		}}
	}
	return nil
}

// Run executes a remote command and returns its combined output. When
// tolerate is set, a non-zero exit is logged and swallowed; callers use
// this for idempotent steps where "already absent" is fine.
func (s *Session) Run(command string, tolerate bool) (string, error) {
	// Info, not Debug: the run log must capture every command echo even
	// without --verbose.
	s.log.Infof("remote> %s", security.SanitizeForLog(command))

	result, err := s.exec.Exec(command)
	if err != nil {
		if tolerate {
			s.log.Warnf("remote command failed (tolerated): %s: %v", security.SanitizeForLog(command), err)
			return "", nil
		}
		return "", &errs.RemoteCommandError{Command: security.SanitizeForLog(command), ExitCode: -1, Output: err.Error()}
	}

	output := result.Combined()
	if result.ExitCode != 0 {
		if tolerate {
			s.log.Warnf("remote command exited %d (tolerated): %s", result.ExitCode, security.SanitizeForLog(command))
			return output, nil
		}
		return output, &errs.RemoteCommandError{
			Command:  security.SanitizeForLog(command),
			ExitCode: result.ExitCode,
			Output:   output,
		}
	}
	return output, nil
}

// Sync mirrors localDir into remoteDir, deleting remote files that no
// longer exist locally.
func (s *Session) Sync(localDir, remoteDir string) error {
	if s.syncer == nil {
		return fmt.Errorf("session has no file transfer support")
	}
	return s.syncer.Sync(localDir, remoteDir)
}

// Upload writes content to a remote file.
func (s *Session) Upload(content, remotePath string) error {
	if s.uploader == nil {
		return fmt.Errorf("session has no file transfer support")
	}
	return s.uploader.UploadContent(content, remotePath)
}

// Close releases the underlying transport.
func (s *Session) Close() error {
	return s.exec.Close()
}
