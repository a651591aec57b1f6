package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockship/dockship/internal/errs"
)

func writeKeyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id_rsa")
	require.NoError(t, os.WriteFile(path, []byte("fake key"), 0600))
	return path
}

func validRequest(t *testing.T) *DeploymentRequest {
	req := &DeploymentRequest{
		RepoURL: "https://github.com/acme/app.git",
		User:    "deploy",
		Host:    "vps.example.com",
		KeyPath: writeKeyFile(t),
	}
	req.ApplyDefaults()
	return req
}

func TestApplyDefaults(t *testing.T) {
	req := &DeploymentRequest{}
	req.ApplyDefaults()

	assert.Equal(t, "main", req.Branch)
	assert.Equal(t, "~/.ssh/id_rsa", req.KeyPath)
	assert.Equal(t, 8080, req.AppPort)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	req := &DeploymentRequest{Branch: "develop", KeyPath: "/tmp/key", AppPort: 3000}
	req.ApplyDefaults()

	assert.Equal(t, "develop", req.Branch)
	assert.Equal(t, "/tmp/key", req.KeyPath)
	assert.Equal(t, 3000, req.AppPort)
}

func TestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		assert.NoError(t, validRequest(t).Validate())
	})

	t.Run("missing repository URL", func(t *testing.T) {
		req := validRequest(t)
		req.RepoURL = "  "
		assertValidationError(t, req.Validate(), "repository URL")
	})

	t.Run("missing username", func(t *testing.T) {
		req := validRequest(t)
		req.User = ""
		assertValidationError(t, req.Validate(), "SSH username")
	})

	t.Run("missing host", func(t *testing.T) {
		req := validRequest(t)
		req.Host = ""
		assertValidationError(t, req.Validate(), "host")
	})

	t.Run("malicious branch", func(t *testing.T) {
		req := validRequest(t)
		req.Branch = "main;rm -rf /"
		assertValidationError(t, req.Validate(), "branch")
	})

	t.Run("key file does not exist", func(t *testing.T) {
		req := validRequest(t)
		req.KeyPath = filepath.Join(t.TempDir(), "missing")
		assertValidationError(t, req.Validate(), "SSH key path")
	})

	t.Run("port out of range", func(t *testing.T) {
		req := validRequest(t)
		req.AppPort = 70000
		assertValidationError(t, req.Validate(), "application port")
	})
}

func TestValidateConnection(t *testing.T) {
	req := validRequest(t)
	req.RepoURL = "" // cleanup mode has no repository
	assert.NoError(t, req.ValidateConnection())

	req.Host = ""
	assertValidationError(t, req.ValidateConnection(), "host")
}

func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	var validationErr *errs.ValidationError
	require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
	assert.Equal(t, field, validationErr.Field)
}

func TestLoadRequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	content := `repo_url: https://github.com/acme/app.git
user: deploy
host: vps.example.com
app_port: 3000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	req, err := LoadRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/app.git", req.RepoURL)
	assert.Equal(t, "deploy", req.User)
	assert.Equal(t, 3000, req.AppPort)
	// Defaults fill what the file leaves out.
	assert.Equal(t, "main", req.Branch)
	assert.Equal(t, "~/.ssh/id_rsa", req.KeyPath)
}

func TestLoadRequestFileErrors(t *testing.T) {
	_, err := LoadRequestFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("{not yaml"), 0600))
	_, err = LoadRequestFile(bad)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/.ssh/id_rsa")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh", "id_rsa"), got)

	got, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
