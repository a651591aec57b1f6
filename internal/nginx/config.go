// Package nginx renders and installs the reverse-proxy site that routes
// port 80 to the application's internal port.
package nginx

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/constants"
	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/ssh"
)

// siteTemplate is the single site this tool owns. It forwards every path
// to the app on loopback, keeps protocol-upgrade headers intact for
// websocket-capable backends, and passes client identity through.
const siteTemplate = `# {{ .SiteName }} - managed by dockship, do not edit
server {
    listen 80;
    server_name _;

    location / {
        proxy_pass http://127.0.0.1:{{ .Port }};
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
    }
}
`

// SiteConfig holds the values rendered into the site template.
type SiteConfig struct {
	SiteName string
	Port     int
}

// Render produces the site file content for the given app port.
func Render(port int) (string, error) {
	t, err := template.New("site").Parse(siteTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse site template: %w", err)
	}

	var buf bytes.Buffer
	err = t.Execute(&buf, SiteConfig{SiteName: constants.SiteName, Port: port})
	if err != nil {
		return "", fmt.Errorf("failed to render site config: %w", err)
	}
	return buf.String(), nil
}

// Configurator installs the rendered site on the server.
type Configurator struct {
	session *ssh.Session
	log     *logrus.Logger
}

// NewConfigurator creates a configurator bound to the session.
func NewConfigurator(session *ssh.Session, log *logrus.Logger) *Configurator {
	return &Configurator{session: session, log: log}
}

// Configure writes the site config, enables it, validates the overall
// nginx configuration, and reloads the daemon. A failed validation
// surfaces the nginx error log tail instead of a bare exit code.
func (c *Configurator) Configure(port int) error {
	content, err := Render(port)
	if err != nil {
		return err
	}

	// Write to a temp path first; sites-available is root-owned.
	tmpPath := "/tmp/" + constants.SiteName + ".conf"
	c.log.Infof("Installing nginx site %s (port 80 -> 127.0.0.1:%d)", constants.SiteName, port)
	if err := c.session.Upload(content, tmpPath); err != nil {
		return fmt.Errorf("failed to upload site config: %w", err)
	}

	if _, err := c.session.Run(fmt.Sprintf("sudo mv %s %s", tmpPath, constants.SitePath()), false); err != nil {
		return err
	}
	if _, err := c.session.Run(fmt.Sprintf("sudo ln -sfn %s %s", constants.SitePath(), constants.SiteLinkPath()), false); err != nil {
		return err
	}

	if _, err := c.session.Run("sudo nginx -t", false); err != nil {
		tail, _ := c.session.Run(fmt.Sprintf("sudo tail -n 20 %s", constants.NginxErrorLog), true)
		return &errs.ProxyConfigError{Err: err, LogTail: tail}
	}

	if _, err := c.session.Run("sudo systemctl reload nginx", false); err != nil {
		return err
	}

	c.log.Info("Nginx site enabled and reloaded")
	return nil
}

// Remove deletes the site from both config directories and reloads nginx.
// Every step tolerates absence; cleanup must work on a half-provisioned
// host.
func (c *Configurator) Remove() {
	_, _ = c.session.Run(fmt.Sprintf("sudo rm -f %s", constants.SiteLinkPath()), true)
	_, _ = c.session.Run(fmt.Sprintf("sudo rm -f %s", constants.SitePath()), true)
	_, _ = c.session.Run("sudo nginx -t", true)
	_, _ = c.session.Run("sudo systemctl reload nginx", true)
}
