package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pi11/podcaster/internal/pipeline"
)

func newDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover new candidate videos on all active sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p := setup()
			snap, err := pipeline.LoadSnapshot()
			if err != nil {
				return err
			}
			rep := pipeline.NewReport()
			if err := p.Discover(cmd.Context(), snap, rep); err != nil {
				return err
			}
			printReport(rep)
			return nil
		},
	}
}

func newDownloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download audio for discovered episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p := setup()
			snap, err := pipeline.LoadSnapshot()
			if err != nil {
				return err
			}
			rep := pipeline.NewReport()
			if err := p.Download(cmd.Context(), snap, rep); err != nil {
				return err
			}
			printReport(rep)
			return nil
		},
	}
}

func newProcessCommand() *cobra.Command {
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Compress oversized files, embed metadata, extract tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p := setup()

			runOnce := func() error {
				snap, err := pipeline.LoadSnapshot()
				if err != nil {
					return err
				}
				rep := pipeline.NewReport()
				if err := p.Process(cmd.Context(), snap, rep); err != nil {
					return err
				}
				printReport(rep)
				return nil
			}

			if !watch {
				return runOnce()
			}

			// Each iteration loads a fresh snapshot and releases it, so
			// watching indefinitely does not accumulate state.
			for {
				if err := runOnce(); err != nil {
					fmt.Println(err)
				}
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(interval):
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "run continuously")
	cmd.Flags().DurationVar(&interval, "interval", 20*time.Second, "watch interval")
	return cmd
}

func newCategorizeCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Assign categories to processed episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p := setup()
			snap, err := pipeline.LoadSnapshot()
			if err != nil {
				return err
			}
			rep := pipeline.NewReport()
			if err := p.Categorize(cmd.Context(), snap, rep, force); err != nil {
				return err
			}
			printReport(rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-run on already categorized episodes")
	return cmd
}

func newScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Assign publication slots to ready episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p := setup()
			rep := pipeline.NewReport()
			if err := p.Schedule(cmd.Context(), time.Now(), rep); err != nil {
				return err
			}
			printReport(rep)
			return nil
		},
	}
}

func newCleanupCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Reclaim storage for deactivated episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p := setup()
			rep := pipeline.NewReport()
			result, err := p.Cleanup(cmd.Context(), dryRun, rep)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Println("Dry run - no files were deleted")
			}
			for _, f := range result.Files {
				fmt.Println("  " + f)
			}
			fmt.Printf("%d files, %d bytes\n", len(result.Files), result.TotalSize)
			printReport(rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report files without deleting them")
	return cmd
}
