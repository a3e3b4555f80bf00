// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "List, save, or initialise graph snapshots",
	Long: `Snapshots are dated JSON files in the snapshot directory. Every save
writes a new file; existing snapshots are never modified. Commands load the
newest snapshot that decodes.`,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		infos, err := a.snapshots.List()
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, infos)
		}
		if len(infos) == 0 {
			fmt.Println("No snapshots found.")
			return nil
		}
		fmt.Printf("%-40s  %-20s  %s\n", "Name", "Created", "Size")
		fmt.Println(strings.Repeat("-", 72))
		for _, in := range infos {
			fmt.Printf("%-40s  %-20s  %d\n", in.Name, in.CreatedAt.Format("2006-01-02 15:04:05"), in.Size)
		}
		fmt.Printf("\n%d snapshots in %s\n", len(infos), a.snapshots.Dir())
		return nil
	},
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write a new snapshot of the current graph",
	Long: `Save loads the newest snapshot and writes it again under a new name,
repairing any weights that did not follow the weight law.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := context.Background()
		if _, err := a.loadStore(ctx); err != nil {
			return err
		}
		return a.save(ctx)
	},
}

var snapshotInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty seed snapshot if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		info, created, err := a.snapshots.Init(context.Background())
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created %s\n", info.Path)
		} else {
			fmt.Printf("Snapshot already present: %s\n", info.Path)
		}
		return nil
	},
}

func init() {
	snapshotListCmd.Flags().Bool("json", false, "output as JSON")

	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotInitCmd)

	rootCmd.AddCommand(snapshotCmd)
}
