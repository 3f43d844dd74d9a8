package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/shekified/life-tracker/internal/ops"
)

func newBackupCommand(opts *globalOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the data directory as a .tar.gz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)

			if out == "" {
				out = filepath.Join("backups", ops.DefaultArchiveName(time.Now()))
			}
			sum, err := ops.Backup(cfg.DataDir, out, log)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			p := newPrinter(cmd)
			if opts.jsonOutput {
				return p.JSON(sum)
			}
			p.Success("Backed up %d files (%d bytes) to %s\n", sum.Files, sum.Bytes, sum.Archive)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "archive path (default backups/lifetracker-<timestamp>.tar.gz)")
	return cmd
}

func newRestoreCommand(opts *globalOptions) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore a backup archive into the data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)

			if target == "" {
				target = cfg.DataDir
			}
			sum, err := ops.Restore(args[0], target, log)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			digest, err := ops.Digest(target)
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			if opts.jsonOutput {
				return p.JSON(map[string]any{"summary": sum, "digest": digest})
			}
			p.Success("Restored %d files into %s\n", sum.Files, sum.Dir)
			p.Info("digest: %s\n", digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target-dir", "", "restore into this directory (default the data directory)")
	return cmd
}
