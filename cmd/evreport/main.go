package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	goflags "github.com/jessevdk/go-flags"

	"evreport/internal/aggregate"
	"evreport/internal/config"
	"evreport/internal/evlog"
	"evreport/internal/logging"
	"evreport/internal/metrics"
	"evreport/internal/normalize"
	"evreport/internal/report"
	"evreport/internal/timewindow"
)

var version = "0.1.0"

type options struct {
	Config  string `long:"config" description:"Path to config file"`
	Log     string `long:"log" short:"l" description:"Event log to read (name or menu number)"`
	Start   string `long:"start" description:"Window start: YYYY-MM-DD[ HH:MM[:SS]]"`
	End     string `long:"end" description:"Window end: YYYY-MM-DD[ HH:MM[:SS]]"`
	Output  string `long:"output" short:"o" description:"Report path (overrides config)"`
	Workers int    `long:"workers" description:"Parallel normalization workers (overrides config)"`
	Yes     bool   `long:"yes" short:"y" description:"Skip the confirmation prompt"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

func main() {
	var opts options
	parser := goflags.NewParser(&opts, goflags.Default)
	parser.Name = "evreport"
	parser.LongDescription = "Aggregate a time window of system event log records by normalized event id and write a formatted spreadsheet report."

	if _, err := parser.Parse(); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("evreport %s\n", version)
		return
	}

	if err := run(opts); err != nil {
		if errors.Is(err, timewindow.ErrQuit) {
			fmt.Println("Operation cancelled by user. Exiting.")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: cfg.Logging.Format})

	in := bufio.NewReader(os.Stdin)
	out := os.Stdout

	choice, err := chooseLog(opts.Log, in, out)
	if err != nil {
		return err
	}
	sourcePath, ok := cfg.Logs[choice.Name]
	if !ok {
		return fmt.Errorf("no source configured for log %q", choice.Name)
	}

	now := time.Now()
	var start, end time.Time
	if opts.Start != "" || opts.End != "" {
		start, end, err = timewindow.ParseRange(opts.Start, opts.End, now)
	} else {
		start, end, err = timewindow.Prompt(in, out, now)
	}
	if err != nil {
		return err
	}

	if !opts.Yes {
		proceed, err := confirm(in, out)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(out, "Skipping aggregation. Exiting.")
			return nil
		}
	}

	collector := metrics.NewCollector()
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("Serving metrics")
	}

	workers := cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	src, err := evlog.OpenJSONL(choice.Name, sourcePath, cfg.BatchSize)
	if err != nil {
		return err
	}
	defer src.Close()

	logger.Info().
		Str("log", choice.Name).
		Time("start", start).
		Time("end", end).
		Msg("Starting aggregation")

	ctx := context.Background()
	engine := aggregate.Engine{
		Normalizer: &normalize.Normalizer{Codes: normalize.DefaultSeverityCodes()},
		Window:     aggregate.Window{Start: start, End: end},
		Workers:    workers,
		Metrics:    collector,
	}
	result, err := engine.Run(ctx, src)
	if err != nil {
		return err
	}

	rows := report.Materialize(result.Accumulators)

	outputPath := cfg.Output.Path
	if opts.Output != "" {
		outputPath = opts.Output
	}
	writer := report.NewExcelWriter(outputPath, logger.WithComponent("report"))
	if err := writer.Write(rows); err != nil {
		return err
	}

	if cfg.Upload != nil && cfg.Upload.S3 != nil {
		uploader, err := report.NewS3Uploader(ctx, report.S3UploadConfig{
			Bucket: cfg.Upload.S3.Bucket,
			Region: cfg.Upload.S3.Region,
			Prefix: cfg.Upload.S3.Prefix,
		})
		if err != nil {
			return fmt.Errorf("s3 upload: %w", err)
		}
		key, err := uploader.Upload(ctx, outputPath)
		if err != nil {
			return err
		}
		logger.Info().Str("bucket", cfg.Upload.S3.Bucket).Str("key", key).Msg("Uploaded report")
	}

	printSummary(out, result)
	return nil
}

func chooseLog(flagValue string, in *bufio.Reader, out io.Writer) (evlog.Choice, error) {
	if flagValue != "" {
		choice, ok := evlog.ResolveChoice(flagValue)
		if !ok {
			return evlog.Choice{}, fmt.Errorf("unknown event log %q", flagValue)
		}
		return choice, nil
	}

	fmt.Fprintln(out, "Choose which event log to read from (type number or name). Type 'q' to quit.")
	for i, c := range evlog.StandardLogs {
		fmt.Fprintf(out, "  %d. %s\n", i+1, c.Friendly)
	}

	for {
		fmt.Fprint(out, "Enter choice: ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return evlog.Choice{}, timewindow.ErrQuit
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "q") {
			return evlog.Choice{}, timewindow.ErrQuit
		}

		if choice, ok := evlog.ResolveChoice(line); ok {
			fmt.Fprintf(out, "Selected: %s\n", choice.Friendly)
			return choice, nil
		}
		fmt.Fprintln(out, "Unrecognized choice. Enter the number or the log name (e.g. Application).")
	}
}

func confirm(in *bufio.Reader, out io.Writer) (bool, error) {
	fmt.Fprintln(out, "\nProceed to aggregate and write the report now? (y/n)")
	fmt.Fprint(out, "> ")

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false, timewindow.ErrQuit
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func printSummary(out io.Writer, result *aggregate.Result) {
	fmt.Fprintln(out, "\n--- Aggregation Summary ---")
	fmt.Fprintf(out, "Total events scanned during aggregation: %d\n", result.Scanned)
	fmt.Fprintf(out, "Events matched in window               : %d\n", result.Matched)
	fmt.Fprintf(out, "Unique EventIDs found                  : %d\n", result.Unique())
	fmt.Fprintln(out, "-----------------------------")
}
