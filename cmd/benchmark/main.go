package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/limaJavier/school-timetabling/pkg/model"
	"github.com/limaJavier/school-timetabling/pkg/timetable"
)

const MB float64 = 1024 * 1024

// Size scales the generated schools
type Size struct {
	Name     string
	Classes  int
	Subjects int
	Teachers int
}

var sizes = map[string]Size{
	"small":  {Name: "small", Classes: 4, Subjects: 6, Teachers: 6},
	"medium": {Name: "medium", Classes: 10, Subjects: 10, Teachers: 12},
	"large":  {Name: "large", Classes: 20, Subjects: 12, Teachers: 24},
}

type TestMetadata struct {
	Size      Size
	Seed      uint64
	Variables int
	Periods   int
}

type BenchmarkResult struct {
	Test         TestMetadata
	Budget       time.Duration
	Status       string
	Nodes        int
	Backtracks   int
	Propagations int
	Duration     time.Duration
	Memory       float64
}

func main() {
	outPtr := flag.String("out", "benchmark_results.csv", "Path to the CSV file where results will be written")
	sizesPtr := flag.String("sizes", "small,medium", "Comma separated instance sizes: small, medium and large")
	seedsPtr := flag.Int("seeds", 5, "Number of random instances per size")
	budgetsPtr := flag.String("budgets", "1s,10s", "Comma separated time budgets")
	flag.Parse()

	budgets, err := parseBudgets(*budgetsPtr)
	if err != nil {
		log.Fatal(err)
	}
	selected, err := parseSizes(*sizesPtr)
	if err != nil {
		log.Fatal(err)
	}

	results := make([]BenchmarkResult, 0, len(selected)*(*seedsPtr)*len(budgets))
	for _, size := range selected {
		for seed := range uint64(*seedsPtr) {
			for _, budget := range budgets {
				fmt.Printf("Benchmarking size \"%v\" with seed \"%v\" and budget \"%v\"\n", size.Name, seed, budget)

				result, err := measure(context.Background(), size, seed, budget)
				if err != nil {
					log.Fatalf("an error occurred while benchmarking size \"%v\" with seed \"%v\": %v", size.Name, seed, err)
				}
				results = append(results, result)
			}
		}
	}

	file, err := os.Create(*outPtr)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := toCsv(file, results); err != nil {
		log.Fatal(err)
	}
}

func generate(size Size, seed uint64) model.RawInput {
	params := model.DefaultGeneratorParams()
	params.Classes = size.Classes
	params.Subjects = size.Subjects
	params.Teachers = size.Teachers
	return model.GenerateInput(rand.New(rand.NewPCG(seed, uint64(size.Classes))), params)
}

func measure(ctx context.Context, size Size, seed uint64, budget time.Duration) (BenchmarkResult, error) {
	domain, err := model.NewDomain(generate(size, seed), model.DefaultSettings())
	if err != nil {
		return BenchmarkResult{}, err
	}
	compilation, err := model.Compile(domain)
	if err != nil {
		return BenchmarkResult{}, err
	}

	runtime.GC()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	table, err := timetable.NewTimetabler(timetable.Config{Budget: budget}).Build(ctx, domain)
	if err != nil {
		return BenchmarkResult{}, err
	}
	runtime.ReadMemStats(&after)

	periods := lo.SumBy(domain.Classes, func(class model.Class) int {
		return lo.SumBy(class.Subjects, func(subject string) int {
			index, _ := domain.SubjectIndex(subject)
			return domain.Subjects[index].Periods
		})
	})

	stats := table.Stats()
	return BenchmarkResult{
		Test: TestMetadata{
			Size:      size,
			Seed:      seed,
			Variables: compilation.Problem.Variables,
			Periods:   periods,
		},
		Budget:       budget,
		Status:       table.Status().String(),
		Nodes:        stats.Nodes,
		Backtracks:   stats.Backtracks,
		Propagations: stats.Propagations,
		Duration:     stats.Duration,
		Memory:       float64(after.TotalAlloc-before.TotalAlloc) / MB,
	}, nil
}

func toCsv(out io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(out)

	header := []string{"Size", "Seed", "Classes", "Subjects", "Teachers", "Variables", "Periods", "Budget(ms)", "Status", "Nodes", "Backtracks", "Propagations", "Duration(ms)", "Allocated(MB)"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Test.Size.Name,
			strconv.FormatUint(result.Test.Seed, 10),
			strconv.Itoa(result.Test.Size.Classes),
			strconv.Itoa(result.Test.Size.Subjects),
			strconv.Itoa(result.Test.Size.Teachers),
			strconv.Itoa(result.Test.Variables),
			strconv.Itoa(result.Test.Periods),
			strconv.FormatInt(result.Budget.Milliseconds(), 10),
			result.Status,
			strconv.Itoa(result.Nodes),
			strconv.Itoa(result.Backtracks),
			strconv.Itoa(result.Propagations),
			fmt.Sprintf("%.3f", float64(result.Duration.Microseconds())/1000),
			fmt.Sprintf("%.1f", result.Memory),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseBudgets(raw string) ([]time.Duration, error) {
	budgets := make([]time.Duration, 0)
	for _, part := range strings.Split(raw, ",") {
		budget, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid budget %q: %w", part, err)
		} else if budget <= 0 {
			return nil, fmt.Errorf("budget must be positive: %v", budget)
		}
		budgets = append(budgets, budget)
	}
	return budgets, nil
}

func parseSizes(raw string) ([]Size, error) {
	selected := make([]Size, 0)
	for _, name := range strings.Split(raw, ",") {
		size, ok := sizes[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%v is not a valid size", name)
		}
		selected = append(selected, size)
	}
	return selected, nil
}
