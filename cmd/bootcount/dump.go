package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mvaleed/bootcount/internal/bootlog"
)

var dumpHead int

var dumpCmd = &cobra.Command{
	Use:   "dump <device>",
	Short: "List the boot-count records in the log",
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

		shown := 0
		_, err = bootlog.Scan(dev, info.Layout, func(i uint32, r bootlog.Record) bool {
			printInfo("Record #%d", i)
			printInfo("  Offset:   0x%08x", info.Layout.SlotOffset(i))
			printInfo("  Magic:    0x%08x", r.Magic)
			printInfo("  Count:    %d", r.Count)
			printInfo("  Checksum: 0x%08x", r.Checksum)
			shown++
			return dumpHead == 0 || shown < dumpHead
		})
		if err != nil {
			printError("%v", err)
			os.Exit(-bootlog.ResultCode(err))
		}
		printInfo("Total: %d records", info.Scan.Written)
		if !info.Scan.Full {
			printVerbose("First free slot: %d (offset 0x%08x)",
				info.Scan.FreeSlot, info.Layout.SlotOffset(info.Scan.FreeSlot))
		}
	},
}

func init() {
	dumpCmd.Flags().IntVar(&dumpHead, "head", 0, "Show at most this many records (0 = all)")
	rootCmd.AddCommand(dumpCmd)
}
