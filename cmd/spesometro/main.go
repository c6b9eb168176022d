package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "spesometro",
		Short:         "Track daily expenses and see where the money goes",
		Long:          `spesometro records expenses by category and summarizes them by day, month and year.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(addCmd(open))
	root.AddCommand(deleteCmd(open))
	root.AddCommand(listCmd(open))
	root.AddCommand(summaryCmd(open))
	root.AddCommand(trendCmd(open))
	root.AddCommand(categoriesCmd(open))
	root.AddCommand(reportCmd(open))
	root.AddCommand(exportCmd(open))

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(openApp).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
