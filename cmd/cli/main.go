package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/limaJavier/school-timetabling/internal/config"
	"github.com/limaJavier/school-timetabling/internal/export"
	"github.com/limaJavier/school-timetabling/internal/logger"
	"github.com/limaJavier/school-timetabling/internal/metrics"
	"github.com/limaJavier/school-timetabling/pkg/model"
	"github.com/limaJavier/school-timetabling/pkg/search"
	"github.com/limaJavier/school-timetabling/pkg/timetable"
)

// Exit codes
const (
	exitSolved       = 10
	exitVerifyFailed = 15
	exitInfeasible   = 20
	exitTimedOut     = 30
)

var validFormats = []string{"json", "csv", "pdf"}

func main() {
	// Define arguments
	filePathPtr := flag.String("file", "", "Path to the input file; further inputs may be given as positional arguments")
	outPathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output. With several inputs it names a directory")
	formatPtr := flag.String("format", "json", "Output format. Allowed values are: \"json\", \"csv\" and \"pdf\", where \"json\" is the default")
	viewPtr := flag.String("view", "class", "Grid view used by the csv and pdf formats: \"class\" or \"teacher\"")
	budgetPtr := flag.Duration("budget", 0, "Time budget per input; overrides the configured solver budget")
	configPathPtr := flag.String("config", "", "Path to an optional configuration file (json, yaml or env)")
	metricsFilePtr := flag.String("metrics-file", "", "If set, solve metrics are written to this file in the Prometheus text format")
	opbPathPtr := flag.String("opb", "", "If set, the compiled problem of the first input is written to this file in OPB format")
	flag.Parse()

	format := strings.ToLower(*formatPtr)
	files := flag.Args()
	if *filePathPtr != "" {
		files = append([]string{*filePathPtr}, files...)
	}

	// Validate arguments
	view, err := export.ParseView(strings.ToLower(*viewPtr))
	if err != nil {
		log.Fatal(err)
	} else if !slices.Contains(validFormats, format) {
		log.Fatalf("%v is not a valid format", format)
	} else if len(files) == 0 {
		log.Fatal("an input file must be specified")
	} else if format == "pdf" && *outPathPtr == "" {
		log.Fatal("the pdf format requires an output path")
	}

	cfg, err := config.Load(*configPathPtr)
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	if *budgetPtr > 0 {
		cfg.Solver.Budget = *budgetPtr
	}
	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	// Extract inputs
	domains := lo.Map(files, func(file string, _ int) *model.Domain {
		rawInput, err := model.InputFromJson(file)
		if err != nil {
			log.Fatalf("cannot parse input file %v: %v", file, err)
		}
		domain, err := model.NewDomain(rawInput, cfg.Settings())
		if err != nil {
			log.Fatalf("invalid input file %v: %v", file, err)
		}
		return domain
	})

	if *opbPathPtr != "" {
		if err := writeOPB(*opbPathPtr, domains[0]); err != nil {
			log.Fatalf("cannot write opb file: %v", err)
		}
	}

	metricsService := metrics.NewMetricsService()
	timetabler := timetable.NewTimetabler(timetable.Config{
		Budget:               cfg.Solver.Budget,
		Logger:               zapLogger,
		Observer:             metricsService,
		DisableCapacityCheck: cfg.Solver.DisableCapacityCheck,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Build timetables
	timetables, err := timetable.BuildAll(ctx, timetabler, domains, cfg.Solver.Workers)
	if err != nil {
		log.Fatalf("an error occurred during timetable construction: %v", err)
	}

	if *metricsFilePtr != "" {
		if err := metricsService.WriteTextfile(*metricsFilePtr); err != nil {
			log.Fatal(err)
		}
	}

	exitCode := exitSolved
	for i, table := range timetables {
		code := outcome(table, timetabler.Verify(table, domains[i]))
		exitCode = worst(exitCode, code)
		printSummary(files[i], table, code)

		// Unsolved timetables have no grid to draw
		if code == exitVerifyFailed || (!table.Solved() && format != "json") {
			continue
		}

		content, err := render(table, domains[i], format, view)
		if err != nil {
			log.Fatalf("an error occurred while building output: %v", err)
		}
		if err := writeOutput(*outPathPtr, files[i], format, len(files) > 1, content); err != nil {
			log.Fatalf("an error occurred while writing the output: %v", err)
		}
	}

	stop()
	_ = zapLogger.Sync()
	os.Exit(exitCode)
}

func outcome(table *timetable.Timetable, verifyErr error) int {
	switch table.Status() {
	case search.Solved:
		if verifyErr != nil {
			return exitVerifyFailed
		}
		return exitSolved
	case search.Infeasible:
		return exitInfeasible
	default:
		return exitTimedOut
	}
}

// worst keeps the most severe exit code: verification failures, then timeouts, then infeasibility
func worst(current, next int) int {
	severity := map[int]int{exitSolved: 0, exitInfeasible: 1, exitTimedOut: 2, exitVerifyFailed: 3}
	if severity[next] > severity[current] {
		return next
	}
	return current
}

func printSummary(file string, table *timetable.Timetable, code int) {
	stats := table.Stats()
	status := table.Status().String()
	if code == exitVerifyFailed {
		status = "verify-failed"
	}
	fmt.Fprintf(os.Stderr, "%v: %v (nodes: %v, backtracks: %v, duration: %v)\n",
		file, status, stats.Nodes, stats.Backtracks, stats.Duration.Round(time.Microsecond))
	if table.Reason() != "" {
		fmt.Fprintf(os.Stderr, "%v: %v\n", file, table.Reason())
	}
}

func render(table *timetable.Timetable, domain *model.Domain, format string, view export.View) ([]byte, error) {
	switch format {
	case "csv":
		return export.NewCSVExporter().Render(export.Grids(table, view, domain.Days, domain.PeriodsPerDay)...)
	case "pdf":
		return export.NewPDFExporter().Render(export.Grids(table, view, domain.Days, domain.PeriodsPerDay)...)
	default:
		return json.MarshalIndent(table, "", "  ")
	}
}

// writeOutput writes to the Standard Output when out is empty. With several inputs out is a directory holding one file per input
func writeOutput(out, input, format string, several bool, content []byte) error {
	if out == "" {
		_, err := fmt.Println(string(content))
		return err
	}
	if several {
		if err := os.MkdirAll(out, 0755); err != nil {
			return err
		}
		name := strings.TrimSuffix(path.Base(input), path.Ext(input))
		out = path.Join(out, fmt.Sprintf("%v.%v", name, format))
	}
	return os.WriteFile(out, content, 0666)
}

func writeOPB(out string, domain *model.Domain) error {
	compilation, err := model.Compile(domain)
	if err != nil {
		return err
	}
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	return errors.Join(compilation.Problem.WriteOPB(file), file.Close())
}
