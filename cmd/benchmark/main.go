package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/limaJavier/dropadd/pkg/bound"
	"github.com/limaJavier/dropadd/pkg/model"
	"github.com/limaJavier/dropadd/pkg/reassign"
	"github.com/limaJavier/dropadd/pkg/report"

	"github.com/samber/lo"
)

const resultsFile = "benchmark_results.csv"

type TestMetadata struct {
	Name       string
	Sections   int
	Students   int
	Requests   int
	UpperBound uint64
	input      model.ModelInput
}

type BenchmarkResult struct {
	Test             TestMetadata
	Seed             int64
	MaxDepth         int
	Duration         int64 // Milliseconds
	Transitions      uint64
	Sweeps           uint64
	SatisfactionRate float64
	Verified         bool
}

func main() {
	directoryPtr := flag.String("dir", "../../test/inputs/", "Directory holding the input files")
	seedsPtr := flag.String("seeds", "1,2,3", "Comma separated list of seeds")
	depthsPtr := flag.String("depths", "4,16,100", "Comma separated list of maximum path depths")
	flag.Parse()

	seeds, err := parseIntList(*seedsPtr)
	if err != nil {
		log.Fatalf("invalid seeds: %v", err)
	}
	depths, err := parseIntList(*depthsPtr)
	if err != nil {
		log.Fatalf("invalid depths: %v", err)
	}

	tests := getTests(*directoryPtr)
	results := make([]BenchmarkResult, 0, len(tests)*len(seeds)*len(depths))

	for _, test := range tests {
		for _, depth := range depths {
			for _, seed := range seeds {
				fmt.Printf("Benchmarking test \"%v\" with depth \"%v\" and seed \"%v\"\n", test.Name, depth, seed)
				results = append(results, measure(test, int64(seed), depth))
			}
		}
	}

	toCsv(results)
}

func getTests(directory string) []TestMetadata {
	testFiles, err := os.ReadDir(directory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	tests := make([]TestMetadata, 0, len(testFiles))
	for _, file := range testFiles {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		filename := filepath.Join(directory, file.Name())
		input, err := model.InputFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}
		upperBound, err := bound.UpperBound(input)
		if err != nil {
			log.Fatalf("cannot compute the upper bound of \"%v\": %v", filename, err)
		}

		tests = append(tests, TestMetadata{
			Name:     filename,
			Sections: len(input.Sections),
			Students: len(input.Students),
			Requests: lo.SumBy(input.Students, func(student model.Student) int {
				return len(student.Requests)
			}),
			UpperBound: upperBound,
			input:      input,
		})
	}
	return tests
}

func measure(test TestMetadata, seed int64, depth int) BenchmarkResult {
	options := reassign.DefaultOptions()
	options.Seed = seed
	options.MaxDepth = depth
	reassigner := reassign.NewAugmentingReassigner(options)

	start := time.Now()
	result, err := reassigner.Reassign(test.input)
	duration := time.Since(start)
	if err != nil {
		log.Fatalf("an error occurred during the reassignment of test \"%v\" using depth \"%v\" and seed \"%v\": %v", test.Name, depth, seed, err)
	}

	return BenchmarkResult{
		Test:             test,
		Seed:             seed,
		MaxDepth:         depth,
		Duration:         duration.Milliseconds(),
		Transitions:      result.Transitions,
		Sweeps:           result.Sweeps,
		SatisfactionRate: report.Build(test.input, result, test.UpperBound).SatisfactionRate,
		Verified:         reassigner.Verify(result, test.input),
	}
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create(resultsFile)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Test", "Sections", "Students", "Requests", "Upper Bound", "Seed", "Max Depth", "Duration(ms)", "Transitions", "Sweeps", "Satisfaction", "Verified"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Sections),
			fmt.Sprintf("%d", result.Test.Students),
			fmt.Sprintf("%d", result.Test.Requests),
			fmt.Sprintf("%d", result.Test.UpperBound),
			fmt.Sprintf("%d", result.Seed),
			fmt.Sprintf("%d", result.MaxDepth),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%d", result.Transitions),
			fmt.Sprintf("%d", result.Sweeps),
			fmt.Sprintf("%.3f", result.SatisfactionRate),
			fmt.Sprintf("%v", result.Verified),
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

func parseIntList(list string) ([]int, error) {
	parts := lo.Compact(lo.Map(strings.Split(list, ","), func(part string, _ int) string {
		return strings.TrimSpace(part)
	}))
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty list")
	}

	values := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		} else if value < 0 {
			return nil, fmt.Errorf("negative value: %v", value)
		}
		values = append(values, value)
	}
	return values, nil
}
