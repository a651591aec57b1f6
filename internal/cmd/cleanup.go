package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dockship/dockship/internal/cleanup"
	"github.com/dockship/dockship/internal/config"
	"github.com/dockship/dockship/internal/constants"
	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/logging"
)

// runCleanup tears down a previous deployment after an explicit
// confirmation. The gate comes before the connection: an aborted cleanup
// performs zero remote operations and is a successful run.
func runCleanup() error {
	log := logging.Logger
	reader := bufio.NewReader(os.Stdin)

	req, err := collectConnectionRequest(reader)
	if err != nil {
		return err
	}
	if err := req.ValidateConnection(); err != nil {
		return err
	}

	orchestrator := cleanup.New(log)

	input := constants.CleanupConfirmation
	if !yesFlag {
		fmt.Printf("This removes the app container, %s, and the nginx site on %s.\n",
			constants.RemoteAppDir, req.Host)
		input = Prompt(reader, fmt.Sprintf("Type %q to confirm", constants.CleanupConfirmation), "")
	}
	if !orchestrator.Confirm(input) {
		log.Info("Cleanup aborted, nothing was changed")
		return nil
	}

	session, err := openSession(req)
	if err != nil {
		return err
	}
	defer session.Close()

	orchestrator.Run(session)
	return nil
}

// collectConnectionRequest prompts only for what cleanup needs: how to
// reach the host.
func collectConnectionRequest(reader *bufio.Reader) (*config.DeploymentRequest, error) {
	if cfgFile != "" {
		return config.LoadRequestFile(cfgFile)
	}
	if !IsInteractive() {
		return nil, &errs.ValidationError{
			Field:   "connection request",
			Message: "no terminal available for prompts; pass --config with a request file",
		}
	}

	req := &config.DeploymentRequest{
		User:    Prompt(reader, "SSH username", ""),
		Host:    Prompt(reader, "Host address", ""),
		KeyPath: Prompt(reader, "SSH key path", constants.DefaultKeyPath),
	}
	req.ApplyDefaults()
	return req, nil
}
