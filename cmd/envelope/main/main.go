package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/envelope/internal/cli"
	"github.com/arthur-debert/envelope/pkg/output/styles"
	"github.com/arthur-debert/envelope/pkg/ui"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		message := fmt.Sprintf("Error: %v", err)
		if ui.DetectFormat(os.Stderr) == ui.FormatTerminal {
			message = styles.GetStyle("Error").Render(message)
		}
		fmt.Fprintln(os.Stderr, message)
		os.Exit(1)
	}
}
