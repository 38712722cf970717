package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/artcycle/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "artcycle",
		Short: "ArtCycle API Server",
		Long:  `ArtCycle lets users commit to short, bounded creative challenges: a fixed number of days, a task schedule per day and artwork evidence per task.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
