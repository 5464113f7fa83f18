// Package cli assembles envelope's command tree: the encrypt and
// decrypt commands plus the supporting version, completion, man,
// genconfig, and topic-based help commands.
package cli

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/envelope/internal/version"
	"github.com/arthur-debert/envelope/pkg/cobrax/topics"
	"github.com/arthur-debert/envelope/pkg/config"
	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/logging"
)

//go:embed help
var helpDocs embed.FS

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		quiet      bool
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:   "envelope",
		Short: "Encrypt and decrypt files with framed authenticated encryption",
		Long: `envelope encrypts and decrypts files, directories, glob patterns, and
stdin/stdout streams. Sources are validated up front so a bad request
never leaves partially processed output behind.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity, quiet)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress warning output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/envelope/envelope.toml)")

	// Disable automatic help command (we use the topic-aware one)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(newCryptoCmd(engine.Encrypt, &configPath))
	rootCmd.AddCommand(newCryptoCmd(engine.Decrypt, &configPath))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd(rootCmd))
	rootCmd.AddCommand(newGenConfigCmd(&configPath))

	if helpFS, err := fs.Sub(helpDocs, "help"); err == nil {
		_ = topics.Initialize(rootCmd, helpFS, topics.Options{
			Renderer: topics.NewGlamourRenderer(),
		})
	}

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including commit hash and build date`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("envelope version %s\n", version.Version)
			if version.Commit != "" {
				cmd.Printf("Commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				cmd.Printf("Built:  %s\n", version.Date)
			}
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(envelope completion bash)

Zsh:
  $ envelope completion zsh > "${fpath[1]}/_envelope"

Fish:
  $ envelope completion fish | source

PowerShell:
  PS> envelope completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				if err := cmd.Root().GenBashCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate bash completion")
				}
			case "zsh":
				if err := cmd.Root().GenZshCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate zsh completion")
				}
			case "fish":
				if err := cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true); err != nil {
					log.Error().Err(err).Msg("Failed to generate fish completion")
				}
			case "powershell":
				if err := cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate powershell completion")
				}
			}
		},
	}
}

func newManCmd(rootCmd *cobra.Command) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "man",
		Short: "Generate man pages",
		Long:  `Generate man pages for envelope`,
		RunE: func(cmd *cobra.Command, args []string) error {
			header := &doc.GenManHeader{
				Title:   "ENVELOPE",
				Section: "1",
			}
			return doc.GenManTree(rootCmd, header, outputDir)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", ".", "Directory to write man pages into")
	return cmd
}

func newGenConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: "Print a config file with the current effective settings",
		Long: `Genconfig renders the merged configuration as a TOML file with every
value commented out, ready to be saved as
$XDG_CONFIG_HOME/envelope/envelope.toml and edited.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			content, err := config.GenerateConfigContent(settings)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}
}
