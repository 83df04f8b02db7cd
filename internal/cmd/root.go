package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/config"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbosity   int
	dbPath      string
	port        int
	mcpPort     int
	llmURL      string
	chatTimeout time.Duration
	prefsPath   string
	logFile     string
	openBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "stryd-dashboard",
	Short: "Stryd Dashboard - explore your Stryd running data",
	Long: `Stryd Dashboard serves a local SQLite store of Stryd activities as a JSON API
for the dashboard client and over the Model Context Protocol (MCP) for AI assistants.

The server runs with:
- Activity list filtered by tags, types and start date
- Activity detail with per-second power, heart rate and GPS track
- 7-day and 10-day rolling distance and duration
- StrAId chat relayed to a local or remote Ollama / LM Studio server
- MCP server for AI tool access

The activity store is opened read-only; it is filled by an external loader.
Settings are read from flags, then from the environment and a .env file
(STRYD_DB, STRYD_PORT, STRYD_PREFS, STRYD_CHAT_TIMEOUT, OLLAMA_API_URL).
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set up logging based on verbosity before any command runs
		logging.SetupWithOptions(logging.Level(verbosity), logging.Options{FilePath: logFile})

		if err := config.LoadEnv(".env"); err != nil {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return Serve(runtimeConfig(cmd))
	},
}

func init() {
	// Logging verbosity
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug, -vv for trace with HTTP headers)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file, rotated")

	// Runtime settings as CLI flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath, "path to the Stryd SQLite database file")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", config.DefaultPort, "dashboard API port")
	rootCmd.PersistentFlags().IntVar(&mcpPort, "mcp-port", config.DefaultMCPPort, "MCP server port (0 for stdio mode, -1 to disable)")
	rootCmd.PersistentFlags().StringVar(&llmURL, "llm-url", config.DefaultLLMURL, "local Ollama server URL")
	rootCmd.PersistentFlags().DurationVar(&chatTimeout, "chat-timeout", config.DefaultChatTimeout, "maximum time to wait for a chat answer")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", config.DefaultPrefsPath, "path to the preferences file")
	rootCmd.PersistentFlags().BoolVar(&openBrowser, "open", false, "open the dashboard in a browser once started")
}

// runtimeConfig merges the flags with the environment. A flag set on the
// command line wins; otherwise the environment overrides the flag default.
func runtimeConfig(cmd *cobra.Command) config.Runtime {
	env := config.DefaultRuntime()
	flags := cmd.Flags()

	rt := config.Runtime{
		DBPath:      dbPath,
		Port:        port,
		MCPPort:     mcpPort,
		LLMURL:      llmURL,
		ChatTimeout: chatTimeout,
		PrefsPath:   prefsPath,
		LogFile:     logFile,
		OpenBrowser: openBrowser,
	}
	if !flags.Changed("db") {
		rt.DBPath = env.DBPath
	}
	if !flags.Changed("port") {
		rt.Port = env.Port
	}
	if !flags.Changed("llm-url") {
		rt.LLMURL = env.LLMURL
	}
	if !flags.Changed("chat-timeout") {
		rt.ChatTimeout = env.ChatTimeout
	}
	if !flags.Changed("prefs") {
		rt.PrefsPath = env.PrefsPath
	}
	return rt
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
