// Command gptctl is a thin CLI over the gogpt library, demonstrating
// its operations end to end the way the teacher's dsktool demonstrates
// raw disk operations end to end.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/earentir/gogpt"
	"github.com/earentir/gogpt/internal/device"
)

var appversion = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:     "gptctl",
		Short:   "GPT Tools",
		Long:    "gptctl - inspect and edit GUID Partition Table metadata on a disk or disk image",
		Version: appversion,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	var listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List partitions",
		Long:    "List the partitions recorded in a device's GUID Partition Table",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPartitions(cmd, args[0])
		},
	}

	var addCmd = &cobra.Command{
		Use:     "add",
		Aliases: []string{"a"},
		Short:   "Add a partition",
		Long:    "Add a new partition to the GUID Partition Table, searching for free space",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			sizeBytes, _ := cmd.Flags().GetUint64("size")
			typeStr, _ := cmd.Flags().GetString("type")
			return addPartition(cmd, args[0], name, sizeBytes, typeStr)
		},
	}
	addCmd.Flags().String("name", "", "Partition name")
	addCmd.Flags().Uint64("size", 0, "Partition size in bytes")
	addCmd.Flags().String("type", "C12A7328-F81F-11D2-BA4B-00A0C93EC93B", "Partition type GUID (default: EFI System)")

	var removeCmd = &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove a partition",
		Long:    "Remove a partition from the GUID Partition Table by slot index",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removePartition(cmd, args[0], args[1])
		},
	}

	var guidCmd = &cobra.Command{
		Use:   "guid",
		Short: "Print the disk GUID",
		Long:  "Print the disk-wide GUID from the active GPT header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDiskGUID(cmd, args[0])
		},
	}

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(guidCmd)
}

func openView(diskPath string, writable bool) (*gpt.DiskView, *device.FileDevice, error) {
	var dev *device.FileDevice
	var err error
	if writable {
		dev, err = device.Open(diskPath)
	} else {
		dev, err = device.OpenReadOnly(diskPath)
	}
	if err != nil {
		return nil, nil, err
	}

	cfg := gpt.NewConfig(gpt.WithWritable(writable), gpt.WithChangePartitionCount(false))
	view, err := gpt.Open(dev, cfg)
	if err != nil {
		dev.Close()
		return nil, nil, fmt.Errorf("error opening GPT on %s: %w", diskPath, err)
	}
	return view, dev, nil
}

func listPartitions(cmd *cobra.Command, diskPath string) error {
	view, dev, err := openView(diskPath, false)
	if err != nil {
		return err
	}
	defer dev.Close()

	partitions := view.Partitions()
	indices := make([]uint32, 0, len(partitions))
	for idx := range partitions {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	out := cmd.OutOrStdout()
	for _, idx := range indices {
		e := partitions[idx]
		info := gpt.LookupType(e.TypeGUID)
		fmt.Fprintf(out, "%3d  %-24s  %-20s  lba [%d, %d]  %s\n",
			idx, e.Name, info.Name, e.FirstLBA, e.LastLBA, e.UniqueGUID)
	}
	return nil
}

func addPartition(cmd *cobra.Command, diskPath, name string, sizeBytes uint64, typeStr string) error {
	view, dev, err := openView(diskPath, true)
	if err != nil {
		return err
	}
	defer dev.Close()

	typeGUID, err := uuid.Parse(typeStr)
	if err != nil {
		return fmt.Errorf("invalid type GUID %q: %w", typeStr, err)
	}

	idx, err := view.AddPartition(name, sizeBytes, typeGUID, 0, 0)
	if err != nil {
		return err
	}

	if _, _, err := view.Write(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "added partition %q at slot %d\n", name, idx)
	return nil
}

func removePartition(cmd *cobra.Command, diskPath, indexStr string) error {
	view, dev, err := openView(diskPath, true)
	if err != nil {
		return err
	}
	defer dev.Close()

	var idx uint32
	if _, err := fmt.Sscanf(indexStr, "%d", &idx); err != nil {
		return fmt.Errorf("invalid slot index %q: %w", indexStr, err)
	}

	removed, err := view.RemovePartition(idx)
	if err != nil {
		return err
	}

	if _, _, err := view.Write(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed partition %q from slot %d\n", removed.Name, idx)
	return nil
}

func printDiskGUID(cmd *cobra.Command, diskPath string) error {
	view, dev, err := openView(diskPath, false)
	if err != nil {
		return err
	}
	defer dev.Close()

	fmt.Fprintln(cmd.OutOrStdout(), view.DiskGUID())
	return nil
}
