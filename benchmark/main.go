// Package main provides a performance benchmarking tool for the flowtrack CLI.
// It measures execution times of the offline commands against the in-memory
// and SQLite event stores, running each test multiple times, treating the first
// successful run as cold and averaging the rest as warm, and writing CSV output
// for performance analysis and documentation.
//
// Prerequisites:
// - flowtrack binary installed and available in PATH
//
// Usage: go run benchmark/main.go [events-db-path]
//
//	events-db-path: SQLite file used for the sqlite phase (it is cleared first)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the result of one suite (in-memory average, cold run and average of warm runs).
type BenchmarkResult struct {
	Command    string
	Args       string
	MemoryTime string
	ColdTime   string
	WarmTime   string
}

// BenchmarkSuite is one command line to time.
type BenchmarkSuite struct {
	Name    string
	Args    []string
	Success string // substring expected in successful output
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DBPath     string
	Timeout    time.Duration
	MemoryRuns int
	SQLiteRuns int
	Suites     []BenchmarkSuite
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [events-db-path]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DBPath:     os.Args[1],
		Timeout:    2 * time.Minute,
		MemoryRuns: 3,
		SQLiteRuns: 4,
		Suites: []BenchmarkSuite{
			{Name: "simulate", Args: []string{"simulate", "--ticks", "100"}, Success: "Simulated 100 ticks"},
			{Name: "simulate", Args: []string{"simulate", "--ticks", "10000", "--output", "csv"}, Success: "tick,"},
			{Name: "classify", Args: []string{"classify", "https://github.com", "https://www.youtube.com", "https://slack.com"}, Success: "github.com"},
			{Name: "events", Args: []string{"events", "list", "--output", "json"}, Success: "["},
			{Name: "events", Args: []string{"events", "totals", "--output", "json"}, Success: "["},
		},
	}

	if _, err := exec.LookPath("flowtrack"); err != nil {
		fmt.Printf("Prerequisites check failed: flowtrack binary not found in PATH\n")
		os.Exit(1)
	}

	fmt.Printf("Clearing events...\n")
	clearCmd := exec.Command("flowtrack", "events", "clear", "--events-db-connect", config.DBPath)
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear events: %v\nOutput: %s\n", err, string(output))
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes every suite against both backends.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d suites, %v timeout, in-memory: %d runs, sqlite: %d runs\n",
		len(config.Suites), config.Timeout, config.MemoryRuns, config.SQLiteRuns)

	for _, suite := range config.Suites {
		results = append(results, runBenchmarkSuite(config, suite))
	}
	return results
}

// runBenchmarkSuite runs the in-memory and sqlite phases for one suite.
func runBenchmarkSuite(config BenchmarkConfig, suite BenchmarkSuite) BenchmarkResult {
	fmt.Printf("Running %s\n", strings.Join(suite.Args, " "))

	runPhase := func(backendArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, suite, backendArgs, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, memoryAvg := runPhase([]string{"--events-backend", "none"}, config.MemoryRuns, "In-memory")
	coldTime, warmAvg := runPhase([]string{"--events-backend", "sqlite", "--events-db-connect", config.DBPath}, config.SQLiteRuns, "SQLite")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  In-memory average: %s, Cold time: %s, Warm average: %s\n", memoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Command:    suite.Name,
		Args:       strings.Join(suite.Args[1:], " "),
		MemoryTime: memoryAvg,
		ColdTime:   coldTimeStr,
		WarmTime:   warmAvg,
	}
}

// runBenchmark executes a suite numRuns times and returns the cold time and warm times.
func runBenchmark(config BenchmarkConfig, suite BenchmarkSuite, backendArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append(append([]string{}, suite.Args...), backendArgs...)

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "flowtrack", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()
		if err == nil && strings.Contains(string(output), suite.Success) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/flowtrack_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"cmd", "args", "memory_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Command, result.Args, result.MemoryTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-9s %-40s In-memory: %s, Cold: %s, Warm: %s\n",
			result.Command, result.Args, result.MemoryTime, result.ColdTime, result.WarmTime)
	}
}
