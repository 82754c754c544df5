package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mvaleed/bootcount/internal/bootlog"
)

var infoCmd = &cobra.Command{
	Use:   "info <device>",
	Short: "Show device geometry, record layout and current boot count",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dev, err := openDevice(args[0])
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}
		defer dev.Close()

		info, err := bootlog.Inspect(dev)
		if err != nil {
			printError("%v", err)
			os.Exit(-bootlog.ResultCode(err))
		}

		printInfo("Device:")
		printInfo("  Size:              %d", info.Geometry.Size)
		printInfo("  Erase size:        %d", info.Geometry.EraseSize)
		printInfo("  Write granularity: %d", info.Geometry.WriteSize)
		printInfo("Layout:")
		printInfo("  Record stride:     %d", info.Layout.Stride)
		printInfo("  Erase unit:        %d", info.Layout.EraseUnit)
		printInfo("  Slots per unit:    %d", info.Layout.SlotsPerUnit)
		printInfo("  Total slots:       %d", info.Layout.TotalSlots)
		printInfo("Log:")
		printInfo("  Records written:   %d", info.Scan.Written)
		if info.Scan.Full {
			printInfo("  Log full:          yes (next reset erases the whole device)")
		} else {
			printInfo("  Next free slot:    %d", info.Scan.FreeSlot)
		}
		printInfo("  Boot count:        %d", info.Scan.LastCount)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
