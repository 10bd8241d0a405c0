package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteJson writes the report into the file, or into the Standard Output if the path is empty
func WriteJson(report Report, path string) error {
	reportJson, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("an error occurred while building output json: %w", err)
	}

	if path == "" {
		fmt.Println(string(reportJson))
		return nil
	}
	if err := os.WriteFile(path, reportJson, 0666); err != nil {
		return fmt.Errorf("an error occurred while writing to the output file: %w", err)
	}
	return nil
}

// WriteChangesCsv writes one record per student whose sections changed
func WriteChangesCsv(report Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	return writeChanges(report, file)
}

func writeChanges(report Report, out io.Writer) error {
	writer := csv.NewWriter(out)

	header := []string{"Student", "Dropped", "Added", "Requests", "Satisfied"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, student := range report.Students {
		if len(student.Dropped) == 0 && len(student.Added) == 0 {
			continue
		}

		statuses := make([]string, 0, len(student.Requests))
		satisfied := 0
		for _, request := range student.Requests {
			statuses = append(statuses, fmt.Sprintf("%v->%v:%v", request.Drop, request.Preferred, request.Status))
			if request.Status != Unsatisfied {
				satisfied++
			}
		}

		record := []string{
			student.Name,
			strings.Join(student.Dropped, " "),
			strings.Join(student.Added, " "),
			strings.Join(statuses, " "),
			fmt.Sprintf("%d", satisfied),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
