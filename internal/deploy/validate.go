package deploy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/constants"
	"github.com/dockship/dockship/internal/ssh"
)

// Validator runs post-deploy reachability checks. Both checks are
// diagnostics for the operator: the deployment is already considered
// complete, so failures log warnings and nothing else.
type Validator struct {
	session *ssh.Session
	log     *logrus.Logger
	client  *http.Client
}

// NewValidator creates a validator bound to the session.
func NewValidator(session *ssh.Session, log *logrus.Logger) *Validator {
	return &Validator{
		session: session,
		log:     log,
		client:  &http.Client{Timeout: constants.ValidateTimeout},
	}
}

// Check probes the app from inside the host and through the proxy from
// outside.
func (v *Validator) Check(host string, appPort int) {
	v.checkInternal(appPort)
	v.checkExternal(host)
}

// checkInternal asks the container directly from the remote host.
func (v *Validator) checkInternal(appPort int) {
	cmd := fmt.Sprintf("curl -s -I -o /dev/null -w '%%{http_code}' --max-time 10 http://127.0.0.1:%d/", appPort)
	output, _ := v.session.Run(cmd, true)
	code := strings.TrimSpace(output)
	if code == "" || code == "000" {
		v.log.Warnf("Container did not answer on 127.0.0.1:%d (check 'docker logs %s')", appPort, constants.AppName)
		return
	}
	v.log.Infof("Container answers locally on port %d (HTTP %s)", appPort, code)
}

// checkExternal sends a HEAD request through the proxy from this machine.
func (v *Validator) checkExternal(host string) {
	url := fmt.Sprintf("http://%s/", host)
	resp, err := v.client.Head(url)
	if err != nil {
		v.log.Warnf("External check failed for %s: %v", url, err)
		return
	}
	defer resp.Body.Close()
	v.log.Infof("External check: %s answered HTTP %d", url, resp.StatusCode)
}
