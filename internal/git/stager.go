// Package git stages the repository to deploy: clone on first run, branch
// switch and fast-forward pull afterwards.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/sirupsen/logrus"

	"github.com/dockship/dockship/internal/errs"
)

// composeFiles are the descriptor names recognized at the checkout root.
var composeFiles = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// WorkingCopy is a staged checkout ready for transfer.
type WorkingCopy struct {
	Path          string
	Branch        string
	HasCompose    bool
	HasDockerfile bool
}

// Stager manages the local working copy of the target repository.
type Stager struct {
	baseDir string
	log     *logrus.Logger
}

// NewStager creates a stager that keeps checkouts under baseDir.
func NewStager(baseDir string, log *logrus.Logger) *Stager {
	return &Stager{baseDir: baseDir, log: log}
}

// Stage clones or updates the working copy at the requested branch, then
// verifies it contains something deployable.
func (s *Stager) Stage(ctx context.Context, repoURL, token, branch string) (*WorkingCopy, error) {
	path := filepath.Join(s.baseDir, RepoName(repoURL))
	auth := AuthFor(repoURL, token)

	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		s.log.Infof("Updating existing checkout at %s", path)
		if err := s.update(ctx, path, branch, auth); err != nil {
			return nil, err
		}
	} else {
		s.log.Infof("Cloning %s (branch %s) into %s", redactURL(repoURL), branch, path)
		if err := s.clone(ctx, repoURL, path, branch, auth); err != nil {
			return nil, err
		}
	}

	wc := &WorkingCopy{Path: path, Branch: branch}
	wc.HasCompose, wc.HasDockerfile = DetectDescriptors(path)
	if !wc.HasCompose && !wc.HasDockerfile {
		return nil, &errs.MissingBuildDescriptorError{Path: path}
	}
	return wc, nil
}

func (s *Stager) clone(ctx context.Context, repoURL, path, branch string, auth transport.AuthMethod) error {
	_, err := gogit.PlainCloneContext(ctx, path, false, &gogit.CloneOptions{
		URL:           repoURL,
		Auth:          auth,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if err != nil {
		// Clean up partial clone on failure
		os.RemoveAll(path)
		return fmt.Errorf("failed to clone %s: %w", redactURL(repoURL), err)
	}
	return nil
}

func (s *Stager) update(ctx context.Context, path, branch string, auth transport.AuthMethod) error {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("failed to open checkout at %s: %w", path, err)
	}

	// Fetch all remote branches so a branch new since the last run exists.
	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: "origin",
		Auth:       auth,
		RefSpecs:   []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch origin: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(branchRef, true); err != nil {
		// No local branch yet, create it from the remote tracking ref.
		remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
		if err != nil {
			return fmt.Errorf("branch %q not found on origin: %w", branch, err)
		}
		err = worktree.Checkout(&gogit.CheckoutOptions{
			Branch: branchRef,
			Hash:   remoteRef.Hash(),
			Create: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create branch %q: %w", branch, err)
		}
	} else {
		err = worktree.Checkout(&gogit.CheckoutOptions{Branch: branchRef})
		if err != nil {
			return fmt.Errorf("failed to switch to branch %q: %w", branch, err)
		}
	}

	err = worktree.Pull(&gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: branchRef,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %q: %w", branch, err)
	}
	return nil
}

// AuthFor returns token authentication for HTTPS URLs. For SSH URLs the
// token is ignored: key-based auth is assumed to be configured already.
func AuthFor(repoURL, token string) transport.AuthMethod {
	if token == "" || !strings.HasPrefix(repoURL, "https://") {
		return nil
	}
	// Forge token auth over HTTPS. The username is ignored by GitHub and
	// GitLab but must be non-empty.
	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}
}

// RepoName derives the checkout directory name from the repository URL.
func RepoName(repoURL string) string {
	name := strings.TrimSuffix(repoURL, "/")
	name = strings.TrimSuffix(name, ".git")
	if idx := strings.LastIndexAny(name, "/:"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		name = "app"
	}
	return name
}

// DetectDescriptors reports which build descriptors exist at the checkout
// root.
func DetectDescriptors(path string) (hasCompose, hasDockerfile bool) {
	for _, name := range composeFiles {
		if _, err := os.Stat(filepath.Join(path, name)); err == nil {
			hasCompose = true
			break
		}
	}
	if _, err := os.Stat(filepath.Join(path, "Dockerfile")); err == nil {
		hasDockerfile = true
	}
	return hasCompose, hasDockerfile
}

// redactURL hides any credential embedded in a URL for log output.
func redactURL(repoURL string) string {
	if at := strings.Index(repoURL, "@"); at >= 0 {
		if scheme := strings.Index(repoURL, "://"); scheme >= 0 && at > scheme {
			return repoURL[:scheme+3] + "****@" + repoURL[at+1:]
		}
	}
	return repoURL
}
