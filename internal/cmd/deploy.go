package cmd

import (
	"bufio"
	"context"
	"os"
	"strconv"

	"github.com/dockship/dockship/internal/config"
	"github.com/dockship/dockship/internal/constants"
	"github.com/dockship/dockship/internal/deploy"
	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/git"
	"github.com/dockship/dockship/internal/logging"
	"github.com/dockship/dockship/internal/nginx"
	"github.com/dockship/dockship/internal/provision"
	"github.com/dockship/dockship/internal/ssh"
)

// runDeploy walks the whole pipeline: collect input, stage the repo,
// connect, provision, transfer, start containers, route traffic, verify.
func runDeploy() error {
	log := logging.Logger

	req, err := collectRequest()
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	// Stage locally before touching the server: a repository with nothing
	// deployable should fail without remote side effects.
	stager := git.NewStager(".", log)
	workingCopy, err := stager.Stage(ctx, req.RepoURL, req.Token, req.Branch)
	if err != nil {
		return err
	}
	log.Infof("Staged %s at branch %s", workingCopy.Path, workingCopy.Branch)

	session, err := openSession(req)
	if err != nil {
		return err
	}
	defer session.Close()

	log.Infof("Provisioning %s...", req.Host)
	if err := provision.New(session, log).Ensure(); err != nil {
		return err
	}

	if err := deploy.Transfer(session, workingCopy.Path, constants.RemoteAppDir, log); err != nil {
		return err
	}

	if err := deploy.NewExecutor(session, log).Deploy(constants.RemoteAppDir, req.AppPort); err != nil {
		return err
	}

	if err := nginx.NewConfigurator(session, log).Configure(req.AppPort); err != nil {
		return err
	}

	// Reachability checks are informational; the deploy is already done.
	deploy.NewValidator(session, log).Check(req.Host, req.AppPort)

	log.Infof("Deployment complete: http://%s/ -> 127.0.0.1:%d", req.Host, req.AppPort)
	return nil
}

// collectRequest builds the deployment request from the request file or
// from interactive prompts.
func collectRequest() (*config.DeploymentRequest, error) {
	if cfgFile != "" {
		return config.LoadRequestFile(cfgFile)
	}
	if !IsInteractive() {
		return nil, &errs.ValidationError{
			Field:   "deployment request",
			Message: "no terminal available for prompts; pass --config with a request file",
		}
	}

	reader := bufio.NewReader(os.Stdin)
	req := &config.DeploymentRequest{
		RepoURL: Prompt(reader, "Repository URL", ""),
		Token:   PromptSecret(reader, "Access token (optional)"),
		Branch:  Prompt(reader, "Branch", constants.DefaultBranch),
		User:    Prompt(reader, "SSH username", ""),
		Host:    Prompt(reader, "Host address", ""),
		KeyPath: Prompt(reader, "SSH key path", constants.DefaultKeyPath),
	}

	portInput := Prompt(reader, "Application port", strconv.Itoa(constants.DefaultPort))
	port, err := strconv.Atoi(portInput)
	if err != nil {
		return nil, &errs.ValidationError{Field: "application port", Message: "must be a number"}
	}
	req.AppPort = port

	req.ApplyDefaults()
	return req, nil
}

// openSession connects to the host and proves the connection works with a
// trivial command before any real remote step runs.
func openSession(req *config.DeploymentRequest) (*ssh.Session, error) {
	log := logging.Logger
	log.Infof("Connecting to %s@%s...", req.User, req.Host)

	client := ssh.NewClient(req.Host, req.User, constants.DefaultSSHPort, req.ExpandedKeyPath())
	if err := client.Connect(); err != nil {
		return nil, &errs.ConnectivityError{Host: req.Host, Err: err}
	}

	session := ssh.NewSession(client, log)
	if err := session.ConnectCheck(); err != nil {
		client.Close()
		return nil, err
	}

	log.Infof("Connected to %s", req.Host)
	return session, nil
}
