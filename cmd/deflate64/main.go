package main

import "os"

func main() {
	rootCmd := buildRootCommand()
	rootCmd.AddCommand(buildExtractCommand())
	rootCmd.AddCommand(buildCatCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
