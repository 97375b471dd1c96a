package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelberinski/genologics/internal/cli"
)

var rootCmd = &cobra.Command{Use: "epp"}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
