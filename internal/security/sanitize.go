package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// branchRegex validates git branch names passed to remote commands.
	// Allows: letters, numbers, dots, underscores, hyphens, forward slashes.
	branchRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]{0,254}$`)

	// hostRegex validates hostnames and IP addresses.
	hostRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]{0,253}$`)

	// unixUserRegex validates Unix usernames (POSIX rules)
	unixUserRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

	// tokenInURLRegex matches an embedded credential between the scheme
	// and the host, as produced by token authentication on HTTPS clones.
	tokenInURLRegex = regexp.MustCompile(`(https?://)[^/@\s]+@`)
)

// ValidateBranch validates a git branch name before it is interpolated
// into a clone or checkout operation.
func ValidateBranch(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch cannot be empty")
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch cannot contain '..'")
	}
	if !branchRegex.MatchString(branch) {
		return fmt.Errorf("branch must contain only letters, numbers, dots, underscores, hyphens, and slashes")
	}
	return nil
}

// ValidateHost validates a hostname or IP address.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if !hostRegex.MatchString(host) {
		return fmt.Errorf("host must be a valid hostname or IP address")
	}
	return nil
}

// ValidateUnixUser validates a Unix username
func ValidateUnixUser(user string) error {
	if user == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(user) > 32 {
		return fmt.Errorf("username too long (max 32 characters)")
	}
	if !unixUserRegex.MatchString(user) {
		return fmt.Errorf("username must start with a lowercase letter or underscore, followed by lowercase letters, numbers, underscores, or hyphens")
	}
	return nil
}

// ValidatePort validates a TCP port number.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// ShellEscape escapes a string for safe use in a POSIX shell command.
// Remote commands are built from escaped arguments, never from raw
// interpolation of user input.
func ShellEscape(s string) string {
	// Replace single quotes with the POSIX escape sequence: end quote, escaped quote, start quote
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// SanitizeForLog masks credentials embedded in URLs before a command or
// message is written to the run log.
func SanitizeForLog(s string) string {
	return tokenInURLRegex.ReplaceAllString(s, "$1****@")
}
