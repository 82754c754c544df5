package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mvaleed/bootcount/internal/bootlog"
)

var resetCmd = &cobra.Command{
	Use:   "reset <device>",
	Short: "Reset the boot-attempt counter to zero",
	Long: `Reset scans the boot-count log for the last written record and, unless
the counter is already zero, erases the smallest sufficient region and
writes back a fresh zero-count record.

The exit status preserves the original tool's result codes as absolute
values: 0 success, 1 geometry unavailable, 2 allocation failed, 3 corrupt
magic, 4 full-device erase failed, 5 block erase failed, 6 write failed.

An erase or write failure can leave the partition erased but not yet
rewritten; rerunning reset after the underlying fault is cleared writes a
fresh record.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dev, err := openDevice(args[0])
		if err != nil {
			printError("%v", err)
			os.Exit(-bootlog.CodeGeometryUnavailable)
		}
		defer dev.Close()

		if err := bootlog.NewResetter(dev).Reset(); err != nil {
			printError("%v", err)
			os.Exit(-bootlog.ResultCode(err))
		}
		printInfo("Boot count successfully reset to zero.")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
