package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/studiowebux/mcdu/internal/cli"
	"github.com/studiowebux/mcdu/internal/config"
	"github.com/studiowebux/mcdu/internal/display"
	"github.com/studiowebux/mcdu/internal/history"
	"github.com/studiowebux/mcdu/internal/logging"
	"github.com/studiowebux/mcdu/internal/screen"
)

var (
	version = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mcdu",
	Short: "MCDU - terminal cockpit display for simulator screen updates",
	Long: `mcdu listens for MCDU screen updates from a flight simulator over WebSocket
and draws them in the terminal.

The simulator sends text frames of the form "update:<json>". Each update is
decoded, its inline markup ({amber}, {small}, {end}, ...) parsed into styled
runs, and the latest screen is drawn on every display tick.

Examples:
  mcdu                                  # Listen on 127.0.0.1:8125 and show the display
  mcdu serve --headless                 # Log screens instead of drawing them
  mcdu serve --port 8320 --record       # Record every update frame to SQLite
  mcdu inspect page.jsonc -o yaml       # Decode a saved message
  mcdu send page.jsonc                  # Send a message to a running relay
  mcdu history --pick                   # Browse recorded frames
  mcdu replay --interval 200ms          # Replay recorded frames on the display`,
	Version: version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WebSocket relay and the display",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Decode a wire message file and print the screen",
	Long: `Decode a wire message and print the resulting screen.

The file may be plain JSON, JSON with comments (JSONC), or a whole
"update:<json>" frame as captured from the simulator.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, err := cli.ParseFormat(flagOutput)
		if err != nil {
			return err
		}
		side, lenient, err := decoderFlags(cfg)
		if err != nil {
			return err
		}
		return cli.Inspect(cli.InspectOptions{
			Path:    args[0],
			Side:    side,
			Lenient: lenient,
			Format:  format,
			Filter:  flagFilter,
			Query:   flagQuery,
			Out:     cmd.OutOrStdout(),
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <file>...",
	Short: "Send wire message files to a relay as update frames",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url := flagURL
		if url == "" {
			url = "ws://" + cfg.Addr() + cfg.Server.Path
		}
		return cli.Send(cmd.Context(), cli.SendOptions{
			URL:      url,
			Paths:    args,
			Interval: flagInterval,
			Repeat:   flagRepeat,
			Out:      cmd.OutOrStdout(),
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, export or prune recorded frames",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dbPath, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		format, err := cli.ParseFormat(flagOutput)
		if err != nil {
			return err
		}
		side, lenient, err := decoderFlags(cfg)
		if err != nil {
			return err
		}
		prune := -1
		if cmd.Flags().Changed("prune") {
			prune = flagPrune
		}
		return cli.History(cli.HistoryOptions{
			DBPath:  dbPath,
			List:    historyListOptions(),
			Format:  format,
			Export:  flagExport,
			Prune:   prune,
			Clear:   flagClear,
			Pick:    flagPick,
			Side:    side,
			Lenient: lenient,
			Out:     cmd.OutOrStdout(),
		})
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay recorded frames to a relay or on the local display",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dbPath, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		side, lenient, err := decoderFlags(cfg)
		if err != nil {
			return err
		}
		// the local display owns the terminal, so logs go to the log file
		logger, closer, err := newLogger(cfg, flagURL == "")
		if err != nil {
			return err
		}
		defer closer.Close()

		return cli.Replay(cmd.Context(), cli.ReplayOptions{
			DBPath:   dbPath,
			List:     replayListOptions(),
			URL:      flagURL,
			Interval: flagReplayInterval,
			Display: display.Options{
				Tick:       time.Duration(cfg.Display.Tick),
				ShowHeader: cfg.Display.ShowHeader,
			},
			Side:    side,
			Lenient: lenient,
			Logger:  logger,
			Out:     cmd.OutOrStdout(),
		})
	},
}

// Global flags
var (
	flagConfig   string
	flagLogLevel string
)

// Flags for serve
var (
	flagHost     string
	flagPort     int
	flagRecord   bool
	flagHeadless bool
)

// Decoder flags shared by serve, inspect, history and replay
var (
	flagSide    string
	flagLenient bool
)

// Flags for inspect and history
var (
	flagOutput string
	flagFilter string
	flagQuery  string
)

// Flags for send and replay
var (
	flagURL      string
	flagInterval time.Duration
	flagRepeat   int
)

// Flags for replay
var (
	flagReplayInterval time.Duration
	flagReplayLimit    int
)

// Flags for history and replay
var (
	flagLimit    int
	flagRemote   string
	flagAccepted bool
	flagExport   string
	flagPrune    int
	flagClear    bool
	flagPick     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default ~/.mcdu/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug/info/warn/error)")

	// Listener flags apply to the root command too, since it runs serve
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&flagHost, "host", "", "Listen host")
		cmd.Flags().IntVarP(&flagPort, "port", "p", 0, "Listen port")
		cmd.Flags().BoolVar(&flagRecord, "record", false, "Record update frames to the history database")
		cmd.Flags().BoolVar(&flagHeadless, "headless", false, "Log screens instead of drawing them")
	}

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd, inspectCmd, historyCmd, replayCmd} {
		cmd.Flags().StringVar(&flagSide, "side", "", "MCDU side to decode (left/right)")
		cmd.Flags().BoolVar(&flagLenient, "lenient", false, "Treat unknown tags as {end} instead of rejecting the update")
	}

	inspectCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (text/json/yaml)")
	inspectCmd.Flags().StringVar(&flagFilter, "filter", "", "JMESPath filter applied to the decoded screen")
	inspectCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query or $(shell command)")

	sendCmd.Flags().StringVar(&flagURL, "url", "", "Relay URL (default from config)")
	sendCmd.Flags().DurationVar(&flagInterval, "interval", 0, "Pause between frames")
	sendCmd.Flags().IntVar(&flagRepeat, "repeat", 1, "Send the files this many times")

	historyCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (text/json/yaml)")
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 50, "Maximum frames to list (0 for all)")
	historyCmd.Flags().StringVar(&flagRemote, "remote", "", "Only frames from this peer address")
	historyCmd.Flags().BoolVar(&flagAccepted, "accepted", false, "Only frames that decoded cleanly")
	historyCmd.Flags().StringVar(&flagExport, "export", "", "Export frames to a .json or .yaml file")
	historyCmd.Flags().IntVar(&flagPrune, "prune", 0, "Keep only the newest N frames")
	historyCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all recorded frames")
	historyCmd.Flags().BoolVar(&flagPick, "pick", false, "Pick a frame interactively and inspect it")

	replayCmd.Flags().StringVar(&flagURL, "url", "", "Send frames to a relay instead of the local display")
	replayCmd.Flags().DurationVar(&flagReplayInterval, "interval", 100*time.Millisecond, "Pause between frames")
	replayCmd.Flags().IntVarP(&flagReplayLimit, "limit", "n", 0, "Maximum frames to replay (0 for all)")
	replayCmd.Flags().StringVar(&flagRemote, "remote", "", "Only frames from this peer address")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(replayCmd)
}

// loadConfig initializes ~/.mcdu, loads the config file and applies flag
// overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	path := flagConfig
	if path == "" {
		path = config.ConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = flagHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = flagPort
	}
	if flags.Changed("record") {
		cfg.History.Enabled = flagRecord
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
	if flags.Changed("side") {
		cfg.Decoder.Side = flagSide
	}
	if flags.Changed("lenient") {
		cfg.Decoder.StrictTags = !flagLenient
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decoderFlags(cfg *config.Config) (screen.Side, bool, error) {
	side, err := screen.ParseSide(cfg.Decoder.Side)
	if err != nil {
		return "", false, err
	}
	return side, !cfg.Decoder.StrictTags, nil
}

func historyListOptions() history.ListOptions {
	return history.ListOptions{
		Limit:        flagLimit,
		Remote:       flagRemote,
		AcceptedOnly: flagAccepted,
	}
}

// replayListOptions selects accepted frames oldest first
func replayListOptions() history.ListOptions {
	return history.ListOptions{
		Limit:        flagReplayLimit,
		Remote:       flagRemote,
		AcceptedOnly: true,
		Oldest:       true,
	}
}

// newLogger builds the process logger. While the display owns the
// terminal, logs go to the log file unless one is configured.
func newLogger(cfg *config.Config, tui bool) (*slog.Logger, io.Closer, error) {
	opts, err := cfg.Logging.Options()
	if err != nil {
		return nil, nil, err
	}
	if tui && opts.File == "" {
		opts.File = config.LogFile
	}
	return logging.New(opts)
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	headless := flagHeadless || !logging.IsTerminal(os.Stdout)

	logger, closer, err := newLogger(cfg, !headless)
	if err != nil {
		return err
	}
	defer closer.Close()

	return cli.Serve(cmd.Context(), cli.ServeOptions{
		Config:   cfg,
		Logger:   logger,
		Headless: headless,
	})
}
