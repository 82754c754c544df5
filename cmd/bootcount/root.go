package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvaleed/bootcount/internal/flashdev"
)

var (
	// Global flags
	verbose bool
	quiet   bool

	// Image-mode flags: operate on a flash dump file instead of a live
	// MTD device. A dump cannot report geometry, so it is supplied here.
	imageMode bool
	imageSize uint32
	eraseSize uint32
	writeSize uint32
)

var rootCmd = &cobra.Command{
	Use:   "bootcount",
	Short: "Inspect and reset the persistent boot-attempt counter on raw flash",
	Long: `bootcount operates on the boot-attempt counter that Linksys-style
bootloaders keep as an append-only record log inside a raw flash (MTD)
partition. It can reset the counter to zero, report the current state,
and dump the raw record log.

The caller must guarantee exclusive access to the partition; bootcount
performs no locking of its own.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&imageMode, "image", false, "Treat the device argument as a flash dump file")
	rootCmd.PersistentFlags().Uint32Var(&imageSize, "size", 0, "Partition size for --image (default: file size)")
	rootCmd.PersistentFlags().Uint32Var(&eraseSize, "erase-size", 0x10000, "Erase-unit size for --image")
	rootCmd.PersistentFlags().Uint32Var(&writeSize, "write-size", 1, "Write granularity for --image")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDevice opens the device named on the command line, honoring --image.
func openDevice(path string) (flashdev.Device, error) {
	if imageMode {
		return flashdev.OpenImage(path, flashdev.Geometry{
			Size:      imageSize,
			EraseSize: eraseSize,
			WriteSize: writeSize,
		})
	}
	return flashdev.OpenMTD(path)
}

// printInfo prints an info message unless in quiet mode.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format+"\n", args...)
	}
}

// printVerbose prints a message only in verbose mode.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
