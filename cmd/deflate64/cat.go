package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"deflate64"
)

func buildCatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat [file]",
		Short: "Decompress a raw Deflate64 stream to standard output",
		Long: `Reads a raw Deflate64 stream from the given file, or from standard
input when no file is given, and writes the decompressed bytes to
standard output.

Examples:
  deflate64 cat stream.bin > stream.out
  deflate64 cat < stream.bin > stream.out`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCat,
	}
}

func runCat(_ *cobra.Command, args []string) error {
	src := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		src = f
	}

	r := deflate64.NewReader(src)
	defer r.Close()

	n, err := io.Copy(os.Stdout, r)
	if err != nil {
		return fmt.Errorf("decompression failed after %d bytes: %w", n, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Decompressed %d bytes\n", n)
	}
	return nil
}
