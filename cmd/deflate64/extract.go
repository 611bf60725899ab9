package main

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"deflate64"
)

// maxEntrySize caps the decompressed size of a single archive entry to
// guard against decompression bombs.
const maxEntrySize = 100 << 30

var extractOutputDir string

func buildExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [archive.zip]",
		Short: "Extract a zip archive, including Deflate64 (method 9) entries",
		Long: `Extracts all entries of a zip archive into the output directory.

Entries compressed with Deflate64 (method 9) are decompressed alongside
the methods archive/zip supports natively (store, deflate).

Safety:
  - Rejects entries whose names escape the output directory
  - Skips symlink entries
  - Caps per-entry decompressed size

Examples:
  deflate64 extract archive.zip              # Extract into the current directory
  deflate64 extract archive.zip -o out/      # Extract into out/
  deflate64 extract -v archive.zip           # Verbose entry listing`,
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}
	cmd.Flags().StringVarP(&extractOutputDir, "output", "o", ".", "Directory to extract into")
	return cmd
}

func runExtract(_ *cobra.Command, args []string) error {
	if err := deflate64.Register(); err != nil {
		return err
	}

	zr, err := zip.OpenReader(args[0])
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", args[0], err)
	}
	defer zr.Close()

	var files, dirs, skipped int
	for _, entry := range zr.File {
		targetPath, pathErr := resolveEntryPath(extractOutputDir, entry.Name)
		if pathErr != nil {
			return fmt.Errorf("illegal entry path %q: %w", entry.Name, pathErr)
		}

		if entry.Mode()&fs.ModeSymlink != 0 {
			if verbose {
				fmt.Printf("SKIP: %s (symlink)\n", entry.Name)
			}
			skipped++
			continue
		}

		if entry.FileInfo().IsDir() {
			if mkErr := os.MkdirAll(targetPath, entry.Mode().Perm()|0o755); mkErr != nil {
				return fmt.Errorf("failed to create directory %s: %w", targetPath, mkErr)
			}
			dirs++
			continue
		}

		if mkErr := os.MkdirAll(filepath.Dir(targetPath), 0o755); mkErr != nil {
			return fmt.Errorf("failed to create parent directory: %w", mkErr)
		}
		if writeErr := extractEntry(entry, targetPath); writeErr != nil {
			return fmt.Errorf("failed to extract %s: %w", entry.Name, writeErr)
		}
		if verbose {
			fmt.Printf("EXTRACT: %s\n", entry.Name)
		}
		files++
	}

	fmt.Printf("Extracted %d files, %d directories", files, dirs)
	if skipped > 0 {
		fmt.Printf(", skipped %d entries", skipped)
	}
	fmt.Println()
	return nil
}

// resolveEntryPath validates an archive entry name and joins it with baseDir.
// Absolute names, traversal segments, and otherwise malformed names are
// rejected so that extraction can never write outside baseDir.
func resolveEntryPath(baseDir, entryName string) (string, error) {
	normalized := strings.ReplaceAll(filepath.ToSlash(entryName), `\`, "/")
	trimmed := strings.TrimRight(normalized, "/")
	if trimmed == "" || strings.HasPrefix(trimmed, "/") {
		return "", fmt.Errorf("invalid entry name")
	}
	if strings.ContainsRune(trimmed, '\x00') {
		return "", fmt.Errorf("invalid entry name")
	}
	clean := path.Clean(trimmed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path traversal")
	}
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("path traversal")
	}
	return filepath.Join(baseDir, filepath.FromSlash(clean)), nil
}

// extractEntry writes a single archive entry to targetPath, limited to
// maxEntrySize decompressed bytes.
func extractEntry(entry *zip.File, targetPath string) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry: %w", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(rc, maxEntrySize))
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to write file content: %w", err)
	}
	if n == maxEntrySize {
		out.Close()
		return fmt.Errorf("entry exceeds size limit")
	}

	return out.Close()
}
