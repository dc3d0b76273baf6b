package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"jira-extract/internal/auth"
	"jira-extract/internal/config"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const minPasswordLength = 8

var (
	addUserTarget  string
	addUserEnv     string
	addUserExample string
	addUserSecrets string
	addUserBcrypt  bool
)

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Add or update a dashboard user",
	Long: `Prompts for a username and password and stores the password hash in the .env file,
the secrets file, or both. Restart the dashboard afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch addUserTarget {
		case "env", "secrets", "both":
		default:
			return fmt.Errorf("invalid --target %q (want env, secrets or both)", addUserTarget)
		}

		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		username, password, err := promptCredentials(line)
		if err != nil {
			return err
		}

		hash := auth.HashPassword(password)
		if addUserBcrypt {
			if hash, err = auth.HashPasswordBcrypt(password); err != nil {
				return err
			}
		}

		envPath, secretsPath := addUserPaths()
		p := auth.Provisioner{
			EnvPath:     envPath,
			ExamplePath: addUserExample,
			SecretsPath: secretsPath,
		}
		out := cmd.OutOrStdout()

		store := func(add func(string, string) error, where string) error {
			err := add(username, hash)
			if errors.Is(err, auth.ErrUserExists) {
				answer, perr := line.Prompt(fmt.Sprintf("User %q already exists in %s. Update the password? (yes/no): ", username, where))
				if perr != nil {
					return perr
				}
				if !strings.EqualFold(strings.TrimSpace(answer), "yes") {
					fmt.Fprintln(out, "Skipped", where)
					return nil
				}
				p.Overwrite = true
				err = add(username, hash)
				p.Overwrite = false
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "User %q written to %s\n", username, where)
			return nil
		}

		if addUserTarget == "env" || addUserTarget == "both" {
			if err := store(func(u, h string) error { return p.AddToEnv(u, h) }, envPath); err != nil {
				return err
			}
		}
		if addUserTarget == "secrets" || addUserTarget == "both" {
			if err := store(func(u, h string) error { return p.AddToSecrets(u, h) }, secretsPath); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, "Restart the dashboard for the change to take effect.")
		return nil
	},
}

// addUserPaths fills in file flags left empty with the locations the dashboard reads from.
func addUserPaths() (envPath, secretsPath string) {
	paths := config.ResolvePaths()
	envPath, secretsPath = addUserEnv, addUserSecrets
	if envPath == "" {
		envPath = paths.EnvFile
	}
	if secretsPath == "" {
		secretsPath = paths.SecretsFile
	}
	return envPath, secretsPath
}

func promptCredentials(line *liner.State) (string, string, error) {
	username, err := line.Prompt("Username: ")
	if err != nil {
		return "", "", abortErr(err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", "", errors.New("username cannot be empty")
	}

	password, err := line.PasswordPrompt("Password: ")
	if err != nil {
		return "", "", abortErr(err)
	}
	if len(password) < minPasswordLength {
		return "", "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	confirm, err := line.PasswordPrompt("Confirm password: ")
	if err != nil {
		return "", "", abortErr(err)
	}
	if confirm != password {
		return "", "", errors.New("passwords do not match")
	}
	return username, password, nil
}

func abortErr(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return errors.New("aborted")
	}
	return err
}

func init() {
	f := addUserCmd.Flags()
	f.StringVar(&addUserTarget, "target", "env", "where to store the user: env, secrets or both")
	f.StringVar(&addUserEnv, "env-file", "", "path of the .env file (default $ENV_FILE or .env)")
	f.StringVar(&addUserExample, "example-file", ".env.example", "template used when the .env file does not exist")
	f.StringVar(&addUserSecrets, "secrets-file", "", "path of the secrets TOML file (default $SECRETS_FILE or $DATA_PATH/secrets.toml)")
	f.BoolVar(&addUserBcrypt, "bcrypt", false, "store a salted bcrypt hash instead of SHA-256")
}
