package ssh

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dockship/dockship/internal/security"
)

// fileTransport is the subset of Client the fallback mirror needs, split
// out so the mirror logic is testable without a live connection.
type fileTransport interface {
	Exec(command string) (*ExecResult, error)
	UploadFile(localPath, remotePath string) error
}

// Sync mirrors localDir into remoteDir with delete-on-sync semantics:
// after Sync, the remote directory's file set equals the local one. It
// prefers rsync for incremental transfer and falls back to uploading the
// whole tree over the existing SSH connection when rsync is unavailable
// on either end.
func (c *Client) Sync(localDir, remoteDir string) error {
	if _, err := c.Exec(fmt.Sprintf("mkdir -p %s", security.ShellEscape(remoteDir))); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	if rsyncPath, err := exec.LookPath("rsync"); err == nil {
		err := c.rsync(rsyncPath, localDir, remoteDir)
		if err == nil {
			return nil
		}
		if !isRemoteRsyncMissing(err) {
			return err
		}
		// The server has no rsync binary; mirror over SSH instead.
	}
	return mirrorTree(c, localDir, remoteDir)
}

// rsyncArgs builds the rsync argument list for a mirror transfer.
func rsyncArgs(localDir, remoteDir, user, host, keyPath string, port int) []string {
	sshCmd := fmt.Sprintf("ssh -p %d -o BatchMode=yes", port)
	if keyPath != "" {
		sshCmd += " -i " + keyPath
	}
	return []string{
		"-az",
		"--delete",
		"-e", sshCmd,
		localDir + "/",
		fmt.Sprintf("%s@%s:%s/", user, host, remoteDir),
	}
}

func (c *Client) rsync(rsyncPath, localDir, remoteDir string) error {
	keyPath := c.KeyPath
	if len(keyPath) >= 2 && keyPath[:2] == "~/" {
		homeDir, _ := os.UserHomeDir()
		keyPath = filepath.Join(homeDir, keyPath[2:])
	}

	cmd := exec.Command(rsyncPath, rsyncArgs(localDir, remoteDir, c.User, c.Host, keyPath, c.Port)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rsync failed: %w\n%s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// isRemoteRsyncMissing detects an rsync run that failed because the
// server side has no rsync binary: the remote shell reports "command not
// found" and the local client exits 127 or with the protocol error that
// an aborted remote end produces.
func isRemoteRsyncMissing(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "command not found") ||
		strings.Contains(msg, "exit status 127") ||
		strings.Contains(msg, "connection unexpectedly closed")
}

// mirrorTree uploads every local file over the SSH connection and removes
// remote files with no local counterpart. Slower than rsync but needs
// nothing on either machine.
func mirrorTree(t fileTransport, localDir, remoteDir string) error {
	localFiles := map[string]bool{}

	err := filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		remotePath := filepath.Join(remoteDir, relPath)
		if info.IsDir() {
			_, err := t.Exec(fmt.Sprintf("mkdir -p %s", security.ShellEscape(remotePath)))
			return err
		}

		localFiles[relPath] = true
		return t.UploadFile(path, remotePath)
	})
	if err != nil {
		return fmt.Errorf("failed to upload tree: %w", err)
	}

	return deleteExtraneous(t, localFiles, remoteDir)
}

// deleteExtraneous removes remote files that no longer exist locally.
func deleteExtraneous(t fileTransport, localFiles map[string]bool, remoteDir string) error {
	result, err := t.Exec(fmt.Sprintf("find %s -type f", security.ShellEscape(remoteDir)))
	if err != nil {
		return fmt.Errorf("failed to list remote files: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to list remote files: %s", result.Stderr)
	}

	var stale []string
	prefix := strings.TrimSuffix(remoteDir, "/") + "/"
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, prefix) {
			continue
		}
		if !localFiles[strings.TrimPrefix(line, prefix)] {
			stale = append(stale, line)
		}
	}
	sort.Strings(stale)

	for _, path := range stale {
		result, err := t.Exec(fmt.Sprintf("rm -f %s", security.ShellEscape(path)))
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("failed to remove stale file %s: %s", path, result.Stderr)
		}
	}

	// Drop directories emptied by the deletions above.
	_, _ = t.Exec(fmt.Sprintf("find %s -mindepth 1 -type d -empty -delete", security.ShellEscape(remoteDir)))
	return nil
}
