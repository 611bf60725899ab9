package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deflate64",
		Version: version,
		Short:   "Decompress Deflate64 (Enhanced Deflate) streams and zip archives",
		Long: `deflate64 decodes streams compressed with the Deflate64 method, also
known as Enhanced Deflate or zip compression method 9.

Commands:
  extract    Extracts a zip archive, including entries stored with method 9
  cat        Decompresses a raw Deflate64 stream to standard output

Examples:
  # Extract an archive into a directory
  deflate64 extract archive.zip -o out/

  # Decompress a raw stream
  deflate64 cat stream.bin > stream.out
  deflate64 cat < stream.bin > stream.out

Safety:
  Archive entries that escape the output directory are rejected.
  Symlink archive entries are skipped.
  Per-entry decompressed size is capped to guard against zip bombs.`,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	return cmd
}
