package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"facecounter/internal/model"
	"facecounter/internal/repository/file"
	"facecounter/internal/repository/sqlite"
)

var force bool

var importCmd = &cobra.Command{
	Use:   "import <blob.json>",
	Short: "Load a JSON state file into the database",
	Long: `Replaces the identities and the attendance ledger in the database with
the contents of a JSON state file. Refuses to overwrite a database that
already knows faces unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return importBlob(cmd.OutOrStdout(), store, args[0], force)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <blob.json>",
	Short: "Write the database state to a JSON state file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return exportBlob(cmd.OutOrStdout(), store, args[0], force)
	},
}

func init() {
	importCmd.Flags().BoolVar(&force, "force", false, "overwrite a non-empty database")
	exportCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

func importBlob(w io.Writer, store *sqlite.Store, blobPath string, force bool) error {
	if _, err := os.Stat(blobPath); err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	snap, err := file.New(blobPath).Load()
	if err != nil {
		return err
	}
	return importSnapshot(w, store, snap, force)
}

// importSnapshot writes snap into the database in a single transaction,
// so a failed import leaves the previous contents in place.
func importSnapshot(w io.Writer, store *sqlite.Store, snap *model.Snapshot, force bool) error {
	known, err := store.Identities().Count()
	if err != nil {
		return err
	}
	if known > 0 && !force {
		return fmt.Errorf("database %s already has %d known faces, use --force to replace them", dbPath, known)
	}

	total := 0
	for _, records := range snap.History {
		total += len(records)
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Importing records"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	if err := store.SaveWithProgress(snap, func() { bar.Add(1) }); err != nil {
		fmt.Fprintln(w)
		return fmt.Errorf("import failed, database left unchanged: %w", err)
	}
	bar.Finish()

	fmt.Fprintf(w, "\n✅ Imported %d known faces and %d records over %d days\n", len(snap.Identities), total, len(snap.History))
	return nil
}

func exportBlob(w io.Writer, store *sqlite.Store, blobPath string, force bool) error {
	if _, err := os.Stat(blobPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", blobPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", blobPath, err)
	}

	snap, err := store.Load()
	if err != nil {
		return err
	}
	if err := file.New(blobPath).Save(snap); err != nil {
		return err
	}

	fmt.Fprintf(w, "✅ Exported %d known faces and %d days to %s\n", len(snap.Identities), len(snap.History), blobPath)
	return nil
}
