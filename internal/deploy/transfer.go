package deploy

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/ssh"
)

// Transfer mirrors the staged working copy to the remote app directory.
// After it returns, the remote file set equals the local one: files
// removed locally are removed remotely too.
func Transfer(session *ssh.Session, localDir, remoteDir string, log *logrus.Logger) error {
	log.Infof("Syncing %s to %s:%s", localDir, session.Host, remoteDir)
	if err := session.Sync(localDir, remoteDir); err != nil {
		return fmt.Errorf("failed to transfer application files: %w", err)
	}
	return nil
}
