package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dockship/dockship/internal/logging"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	verbose     bool
	cfgFile     string
	yesFlag     bool // CI/CD: skip confirmations
	cleanupFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "dockship",
	Short: "Deploy a containerized application to a remote host",
	Long: `Dockship deploys a containerized application to a single remote host:
it installs Docker and nginx if needed, stages your repository, syncs it
to the server, builds and starts the containers, and routes port 80 to
your application through nginx.

Run without flags for an interactive deploy. Run with --cleanup to
remove everything a deploy created.

CI/CD Environment Variables:
  DOCKSHIP_SSH_KEY             SSH private key content
  DOCKSHIP_KNOWN_HOSTS         SSH known_hosts content
  DOCKSHIP_SKIP_HOST_KEY_CHECK Skip host key verification (true/false)`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.SetVerbose(verbose)
		if cleanupFlag {
			return runCleanup()
		}
		return runDeploy()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed logs")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Request file for non-interactive runs (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmations (CI/CD mode)")
	rootCmd.Flags().BoolVar(&cleanupFlag, "cleanup", false, "Tear down a previous deployment instead of deploying")

	rootCmd.SetVersionTemplate(`dockship {{.Version}}
`)
}
