package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prompter/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit <file.pptx>",
		Short: "Upload a presentation for conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer file.Close()

			job, err := ctx.client().Submit(cmd.Context(), filepath.Base(path), file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queued job %s (%s)\n", job.ID, job.SourceName)

			if !wait {
				return nil
			}
			final, err := waitForJob(cmd, ctx, job.ID)
			if err != nil {
				return err
			}
			if final.Status == "failed" {
				return fmt.Errorf("job %s failed: %s (%s)", final.ID, final.ErrorMessage, final.ErrorKind)
			}
			fmt.Fprintf(out, "Job %s completed; download with `prompter download %s`\n", final.ID, final.ID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Block until the job reaches a terminal state")
	return cmd
}

func waitForJob(cmd *cobra.Command, ctx *commandContext, id string) (*api.JobPayload, error) {
	for {
		job, err := ctx.client().Describe(cmd.Context(), id)
		if err != nil {
			return nil, err
		}
		if job.Status == "completed" || job.Status == "failed" {
			return job, nil
		}
		select {
		case <-cmd.Context().Done():
			return nil, cmd.Context().Err()
		case <-time.After(time.Second):
		}
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List conversion jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := ctx.client().List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, job := range list {
				detail := ""
				if job.Status == "failed" {
					detail = job.ErrorKind
				}
				rows = append(rows, []string{
					job.ID,
					job.SourceName,
					job.Status,
					detail,
					job.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Source", "Status", "Detail", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := ctx.client().Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", job.ID)
			fmt.Fprintf(out, "Source:   %s\n", job.SourceName)
			fmt.Fprintf(out, "Status:   %s\n", job.Status)
			fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Updated:  %s\n", job.UpdatedAt.Local().Format(time.RFC3339))
			if job.Status == "failed" {
				fmt.Fprintf(out, "Error:    %s (%s)\n", job.ErrorMessage, job.ErrorKind)
			}
			return nil
		},
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "download <job-id>",
		Short: "Download a completed job's script slides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			target := strings.TrimSpace(outputPath)
			tmp, err := os.CreateTemp(filepath.Dir(targetOrCwd(target)), ".prompter-download-*")
			if err != nil {
				return fmt.Errorf("create download file: %w", err)
			}
			defer func() {
				tmp.Close()
				os.Remove(tmp.Name())
			}()

			name, err := ctx.client().Download(cmd.Context(), id, tmp)
			if err != nil {
				return err
			}
			if err := tmp.Close(); err != nil {
				return fmt.Errorf("finish download: %w", err)
			}

			if target == "" {
				if name == "" {
					name = id + ".pptx"
				}
				target = name
			}
			if err := os.Rename(tmp.Name(), target); err != nil {
				return fmt.Errorf("move download into place: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination path for the downloaded deck")
	return cmd
}

func targetOrCwd(target string) string {
	if target == "" {
		return "."
	}
	return target
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Delete a job and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", args[0])
			return nil
		},
	}
}
