package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/limaJavier/dropadd/pkg/bound"
	"github.com/limaJavier/dropadd/pkg/model"
)

var boundCmd = &cobra.Command{
	Use:   "bound",
	Short: "Print the maximum number of requests any reassignment can satisfy",
	RunE:  runBound,
}

func init() {
	rootCmd.AddCommand(boundCmd)
}

func runBound(cmd *cobra.Command, args []string) error {
	input, err := model.InputFromJson(filePath)
	if err != nil {
		return fmt.Errorf("cannot parse input file: %w", err)
	}

	upperBound, err := bound.UpperBound(input)
	if err != nil {
		return fmt.Errorf("cannot compute the upper bound: %w", err)
	}

	requests := 0
	for _, student := range input.Students {
		requests += len(student.Requests)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Requests: %v\n", requests)
	fmt.Fprintf(cmd.OutOrStdout(), "Upper bound: %v\n", upperBound)
	return nil
}
