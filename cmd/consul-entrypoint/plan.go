package main

import (
	"fmt"

	"github.com/spf13/cobra"
	entrypoint "github.com/streamingfast/consul-entrypoint"
)

// planE prints the invocation the entrypoint would exec
func planE(cmd *cobra.Command, args []string) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}

	ep := entrypoint.New()
	ep.EnvFilePath = envFile

	inv, err := ep.Plan(commandContext(cmd), args)
	if err != nil {
		return err
	}

	data, err := entrypoint.MarshalInvocation(inv, output)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
