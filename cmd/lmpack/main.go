// lmpack packs molecular mixtures into low-density periodic boxes and
// drives staged LAMMPS simulations over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polysim/lmpack/internal/config"
	"github.com/polysim/lmpack/internal/logging"
	"github.com/polysim/lmpack/internal/mixture"
	"github.com/polysim/lmpack/internal/pipeline"
)

var (
	configPath string
	jobID      int
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "lmpack",
		Short:         "mixture packing and staged LAMMPS pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	root.AddCommand(runCmd(), progressCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lmpack:", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a job from a job file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			id := jobID
			if id == 0 {
				if id, err = pipeline.NextJobID(cfg.OutputDir); err != nil {
					return err
				}
			}
			jobDir := filepath.Join(cfg.OutputDir, strconv.Itoa(id))
			if _, err := os.Stat(jobDir); err == nil {
				return fmt.Errorf("job directory %s already exists", jobDir)
			}
			if err := os.MkdirAll(jobDir, 0755); err != nil {
				return err
			}
			log, err := logging.New(logLevel, filepath.Join(jobDir, "log.txt"))
			if err != nil {
				return err
			}
			defer log.Sync()
			log.Info("job initialized",
				zap.Int("id", id),
				zap.String("config", configPath))

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			src := mixture.FileSource{Root: cfg.StructureDir}
			builder := pipeline.CommandStructureBuilder{Command: cfg.StructureCommand}
			runner := pipeline.NewRunner(cfg, log, src, builder)
			return runner.Run(ctx, jobDir)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "job file")
	cmd.Flags().IntVar(&jobID, "id", 0, "job id (0 picks the next free one)")
	cmd.MarkFlagRequired("config")
	return cmd
}

func progressCmd() *cobra.Command {
	var watch bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "progress <mixture-dir>",
		Short: "report substage progress of a running mixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			counts := cfg.SubstageCounts()
			if !watch {
				p, err := pipeline.ScanProgress(args[0], counts)
				if err != nil {
					return err
				}
				fmt.Printf("%d/%d substages\n", p.Done, p.Total)
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = pipeline.WatchProgress(ctx, args[0], counts, interval,
				func(p pipeline.Progress) {
					fmt.Printf("%d/%d substages\n", p.Done, p.Total)
				})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "job file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep watching for changes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "rescan interval while watching")
	cmd.MarkFlagRequired("config")
	return cmd
}
