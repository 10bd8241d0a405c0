package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/limaJavier/dropadd/internal/logger"
	"github.com/limaJavier/dropadd/pkg/reassign"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the reassignment and only check it against the hard constraints",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.NewZerologLogger("verify", cfg.Logging.LoggerOptions())

	_, result, err := reassignVerified(cfg, log, reassign.NopObserver{})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Transitions: %v\n", result.Transitions)
	fmt.Fprintf(cmd.OutOrStdout(), "Sweeps: %v\n", result.Sweeps)
	return nil
}
