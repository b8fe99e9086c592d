package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/offplan-forecast/internal/config"
	"github.com/iwvelando/offplan-forecast/internal/forecast"
	"github.com/iwvelando/offplan-forecast/internal/optimizer"
	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/output"
	"github.com/iwvelando/offplan-forecast/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "offplan-forecast: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("offplan-forecast", flag.ContinueOnError)
	configLocation := flags.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flags.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flags.String("log-level", "", "log level override (debug, info, warn, error)")
	skipSolvers := flags.Bool("skip-solvers", false, "do not run configured solvers")
	if err := flags.Parse(args); err != nil {
		return err
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", *configLocation, err)
	}

	logger, err := conf.Logging.BuildLogger(*logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	outputFormat, err = validation.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	results, err := forecast.GetForecast(logger, *conf)
	if err != nil {
		return fmt.Errorf("failed to compute forecast: %w", err)
	}

	if !*skipSolvers {
		runner, err := optimizer.NewRunner(logger, conf)
		if err != nil {
			return err
		}
		solved, err := runner.Run()
		if err != nil {
			return fmt.Errorf("failed to run solvers: %w", err)
		}
		solved.Apply(results)
	}

	logger.Debug("forecast complete",
		zap.String("op", "main"),
		zap.Int("scenarios", len(results)),
		zap.String("format", outputFormat),
	)

	switch outputFormat {
	case constants.OutputFormatCSV:
		output.CsvFormat(stdout, results)
		return nil
	default:
		return output.PrettyFormat(stdout, results)
	}
}
