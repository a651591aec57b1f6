package constants

import "time"

// Remote filesystem layout for dockship on the server
const (
	RemoteAppDir = "/opt/dockship/app"
)

// Nginx site configuration
const (
	SiteName          = "dockship"
	SitesAvailableDir = "/etc/nginx/sites-available"
	SitesEnabledDir   = "/etc/nginx/sites-enabled"
	NginxErrorLog     = "/var/log/nginx/error.log"
)

// Container configuration
const (
	AppName   = "dockship-app"
	ImageName = "dockship-app"
)

// Deployment defaults
const (
	DefaultBranch  = "main"
	DefaultKeyPath = "~/.ssh/id_rsa"
	DefaultPort    = 8080
	DefaultSSHPort = 22
)

// Timing
const (
	ConnectTimeout   = 30 * time.Second
	StartGracePeriod = 5 * time.Second
	ValidateTimeout  = 10 * time.Second
)

// CleanupConfirmation is the exact string the operator must type before
// cleanup touches the server.
const CleanupConfirmation = "yes"

// SitePath returns the sites-available path for the dockship site.
func SitePath() string {
	return SitesAvailableDir + "/" + SiteName
}

// SiteLinkPath returns the sites-enabled symlink path for the dockship site.
func SiteLinkPath() string {
	return SitesEnabledDir + "/" + SiteName
}
