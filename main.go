package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	settingsPath string
	queuePath    string
	writeURL     string
	listURL      string
	secretPost   bool
	imageCount   int
	headless     bool
	debugMode    bool
	interactive  bool
	noManual     bool

	genCount     int
	genTopic     string
	genOnlyEmpty bool
	sampleCount  int
	sampleForce  bool
	cronExpr     string
	framesURL    string
)

var rootCmd = &cobra.Command{
	Use:   "mall-writer",
	Short: "Publish queued posts to the mall bulletin board",
	Long: `Publishes one pending row of the spreadsheet work queue per run through a
real Chrome session: logs in, opens the write form, fills title and body,
attaches images, ticks the secret box and submits.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runCmd.RunE,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Draft missing content, then publish the next pending row",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		gen, err := NewContentGenerator(cfg)
		if err != nil {
			return err
		}
		return report(newProcessor(cfg, gen).Run(cmd.Context()))
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish the next pending row without drafting content",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		return report(newProcessor(cfg, nil).Post(cmd.Context()))
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft posts into the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		gen, err := NewContentGenerator(cfg)
		if err != nil {
			return err
		}
		store := NewStore(cfg.Settings.QueuePath)

		if genOnlyEmpty {
			n, err := gen.FillEmpty(store)
			if err != nil {
				return err
			}
			logDone("Drafted %d row(s) (model: %s) → %s", n, gen.ModelName(), store.Path())
			return nil
		}
		n, err := gen.AppendNew(store, genCount, genTopic)
		if err != nil {
			return err
		}
		logDone("Generated %d post(s) (model: %s) → %s", n, gen.ModelName(), store.Path())
		return nil
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a sample queue file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		store := NewStore(cfg.Settings.QueuePath)
		created, err := store.WriteSample(sampleCount, sampleForce)
		if err != nil {
			return err
		}
		if !created {
			logWarn("%s already exists, use --force to overwrite", store.Path())
			return nil
		}
		logDone("Sample queue with %d row(s) written to %s", sampleCount, store.Path())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		rows, err := NewStore(cfg.Settings.QueuePath).Rows()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), queueReport(rows))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		expr := cfg.Settings.Schedule
		if cmd.Flags().Changed("cron") {
			expr = cronExpr
		}
		if expr == "" {
			return fmt.Errorf("no schedule: set --cron or schedule in settings")
		}
		gen, err := NewContentGenerator(cfg)
		if err != nil {
			return err
		}
		processor := newProcessor(cfg, gen)
		if interactive && !noManual {
			// Nobody answers a prompt between scheduled runs
			logWarn("--interactive is ignored when scheduled")
			processor.manual = pollManualLogin(cfg.Settings.Login.ManualTimeout(), cfg.Settings.Login.PollInterval())
		}

		return runScheduled(cmd.Context(), expr, func(ctx context.Context) {
			if err := report(processor.Run(ctx)); err != nil {
				logFail("%s", err)
			}
		})
	},
}

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List the iframes of a page (editor debugging)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		target := framesURL
		if target == "" {
			target = cfg.Settings.Site.WriteURL
		}

		sess, err := OpenSession(cmd.Context(), cfg.Settings.Browser)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Navigate(cmd.Context(), target); err != nil {
			return err
		}
		dismissAlerts(cmd.Context(), sess, cfg.Settings.Site.AlertLimit)
		frames, err := listFrames(cmd.Context(), sess)
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			logWarn("no iframes on %s", target)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), framesReport(frames))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsPath, "settings", "", "Path to settings file (default .mall-writer/settings.yaml)")
	pf.StringVar(&queuePath, "queue", "", "Path to the queue .xlsx file")
	pf.StringVar(&writeURL, "url", "", "Post form URL")
	pf.StringVar(&listURL, "list-url", "", "Board listing URL")
	pf.BoolVar(&secretPost, "secret", true, "Mark posts as secret")
	pf.IntVar(&imageCount, "images", 2, "Number of images to attach (0 disables)")
	pf.BoolVar(&headless, "headless", false, "Run Chrome headless")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	pf.BoolVar(&interactive, "interactive", false, "Ask on the terminal to confirm manual login")
	pf.BoolVar(&noManual, "no-manual", false, "Fail instead of waiting for manual login")

	generateCmd.Flags().IntVar(&genCount, "count", 1, "Posts to generate (0 = one per sub-category)")
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "Topic for every generated post")
	generateCmd.Flags().BoolVar(&genOnlyEmpty, "only-empty", false, "Only fill rows with missing title or body")
	sampleCmd.Flags().IntVar(&sampleCount, "rows", 5, "Number of sample rows")
	sampleCmd.Flags().BoolVar(&sampleForce, "force", false, "Overwrite an existing queue file")
	scheduleCmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (default from settings)")
	framesCmd.Flags().StringVar(&framesURL, "page", "", "Page to inspect (default: post form URL)")

	rootCmd.AddCommand(runCmd, postCmd, generateCmd, sampleCmd, statusCmd, scheduleCmd, framesCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	runID := setupLogging()
	SetDebugMode(debugMode)
	debugLog("run %s", runID)
	return nil
}

// loadConfigFromFlags turns explicitly set flags into overrides
func loadConfigFromFlags(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()
	overrides := &ConfigOverrides{}
	if flags.Changed("settings") {
		overrides.SettingsPath = &settingsPath
	}
	if flags.Changed("queue") {
		overrides.QueuePath = &queuePath
	}
	if flags.Changed("url") {
		overrides.WriteURL = &writeURL
	}
	if flags.Changed("list-url") {
		overrides.ListURL = &listURL
	}
	if flags.Changed("secret") {
		overrides.Secret = &secretPost
	}
	if flags.Changed("images") {
		overrides.ImageCount = &imageCount
	}
	if flags.Changed("headless") {
		overrides.Headless = &headless
	}
	return LoadConfig(overrides)
}

func newProcessor(cfg *Config, gen *ContentGenerator) *PostProcessor {
	var manual ManualLogin
	switch {
	case noManual:
		manual = abortManualLogin
	case interactive:
		manual = promptManualLogin(3)
	}
	return NewPostProcessor(cfg, gen, manual)
}

// report logs the outcome and turns failures into an error for the exit code
func report(res ProcessingResult) error {
	switch res.Status {
	case StatusSuccess:
		logDone("Done: %s (images: %s)", res.PostURL, res.Images)
		return nil
	case StatusSkipped:
		return nil
	default:
		if res.Row != nil {
			return fmt.Errorf("row %d left pending: %s", res.Row.Index, describeError(res.Error))
		}
		return fmt.Errorf("%s", describeError(res.Error))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Print(errorColor("✗ " + err.Error()))
		stop()
		os.Exit(1)
	}
}
