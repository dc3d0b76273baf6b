package commands

import (
	"os"

	"jira-extract/internal/auth"
	"jira-extract/internal/config"
	"jira-extract/internal/jira"
	"jira-extract/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "jira-extract",
	Short: "QA refinement dashboard and extraction tool for Jira Cloud",
	Long: `Builds JQL from QA filter choices, fetches matching issues from Jira Cloud, and shapes them into
priority-sorted rows for review, Excel/CSV export or MCP clients.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		paths := config.ResolvePaths()
		if err := logging.Init(logging.Options{Verbose: verbose, Dir: paths.LogDir}); err != nil {
			return err
		}
		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("jira-extract starting")
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd, fetchCmd, addUserCmd, mcpCmd)
}

// loadClient reads the configuration and builds the Jira client shared by every command that talks to Jira.
func loadClient() (*config.AppConfig, jira.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log.Debug().
		Bool("fromSecrets", cfg.FromSecrets).
		Str("secretsFile", cfg.SecretsFile).
		Str("project", cfg.Jira.ProjectKey).
		Msg("Jira settings loaded")
	return cfg, jira.NewClient(cfg.Jira), nil
}

func loadUsers(cfg *config.AppConfig) *auth.UserStore {
	src := auth.UserSources{Env: os.LookupEnv}
	if s := cfg.Secrets; s != nil {
		src.SecretsUsers = s.Users
		if s.Auth != nil {
			src.SecretsAuth = &auth.Credential{Username: s.Auth.Username, PasswordHash: s.Auth.PasswordHash}
		}
	}
	return auth.LoadUsers(src)
}
