package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podbench/internal/api"
	"podbench/internal/catalog"
	"podbench/internal/client"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var opts client.ListOptions
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				list, err := c.ListEpisodes(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, list)
				}

				stdout := cmd.OutOrStdout()
				if len(list.Episodes) == 0 {
					fmt.Fprintln(stdout, "No episodes in the catalog")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(episodeListHeaders(), buildEpisodeRows(list.Episodes)))
				if list.Total > len(list.Episodes) {
					fmt.Fprintf(stdout, "Showing %d of %d episodes\n", len(list.Episodes), list.Total)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum episodes to return")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Episodes to skip")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Sort column (created_at or updated_at)")
	cmd.Flags().StringVar(&opts.Order, "order", "", "Sort order (asc or desc)")
	cmd.Flags().StringVar(&opts.Stage, "stage", "", "Filter by stage (requires --status)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by stage status (requires --stage)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON instead of a table")
	return cmd
}

func episodeListHeaders() []string {
	return []string{"ID", "Title", "Preprocess", "Edit", "Postprocess", "Metadata", "Export", "Created"}
}

func buildEpisodeRows(episodes []api.Episode) [][]string {
	rows := make([][]string, 0, len(episodes))
	for _, episode := range episodes {
		rows = append(rows, []string{
			episode.ID,
			episode.Title,
			episode.Stages.Preprocess,
			episode.Stages.Edit,
			episode.Stages.Postprocess,
			episode.Stages.Metadata,
			episode.Stages.Export,
			compactTime(episode.CreatedAt),
		})
	}
	return rows
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <episode-id>",
		Short: "Show one episode and its job history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				episode, err := c.GetEpisode(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				jobs, err := c.EpisodeJobs(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, struct {
						Episode *api.Episode `json:"episode"`
						Jobs    []api.Job    `json:"jobs"`
					}{Episode: episode, Jobs: jobs})
				}

				printEpisode(cmd, episode, jobs)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON instead of formatted output")
	return cmd
}

func printEpisode(cmd *cobra.Command, episode *api.Episode, jobs []api.Job) {
	stdout := cmd.OutOrStdout()

	fmt.Fprintf(stdout, "Title:        %s\n", episode.Title)
	fmt.Fprintf(stdout, "ID:           %s\n", episode.ID)
	fmt.Fprintf(stdout, "Created:      %s\n", compactTime(episode.CreatedAt))
	fmt.Fprintf(stdout, "Updated:      %s\n", compactTime(episode.UpdatedAt))
	fmt.Fprintf(stdout, "Editor state: %s\n", yesNo(episode.EditorState != ""))
	fmt.Fprintln(stdout)

	stageRows := [][]string{
		{string(catalog.StagePreprocess), episode.Stages.Preprocess},
		{string(catalog.StageEdit), episode.Stages.Edit},
		{string(catalog.StagePostprocess), episode.Stages.Postprocess},
		{string(catalog.StageMetadata), episode.Stages.Metadata},
		{string(catalog.StageExport), episode.Stages.Export},
	}
	fmt.Fprintln(stdout, renderTable([]string{"Stage", "Status"}, stageRows))

	if len(jobs) == 0 {
		fmt.Fprintln(stdout, "No jobs recorded")
		return
	}
	jobRows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		jobRows = append(jobRows, []string{
			fmt.Sprintf("%d", job.ID),
			job.Stage,
			job.Status,
			compactTime(job.StartedAt),
			compactTime(job.FinishedAt),
			job.ErrorMessage,
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Job", "Stage", "Status", "Started", "Finished", "Error"}, jobRows, 0))
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "create <recording>...",
		Short: "Create an episode from local recording files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				episode, err := c.CreateEpisode(cmd.Context(), title, args)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Created episode %s (%s)\n", episode.ID, episode.Title)
				if episode.Stages.Preprocess != string(catalog.StatusInit) {
					fmt.Fprintln(stdout, "Preprocess stage queued")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Episode title (derived from the first filename when omitted)")
	return cmd
}

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <episode-id> <stage>",
		Short: "Run a pipeline stage on an episode",
		Long:  "Run one of the pipeline stages (preprocess, edit, postprocess, metadata, export)\non an episode. The daemon accepts the run and executes it in the background;\nuse `podbench show` to watch the outcome.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.TriggerStage(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted %s run for %s (job %d, status %s)\n",
					resp.Job.Stage, resp.Episode.ID, resp.Job.ID, resp.Job.Status)
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <episode-id>",
		Short: "Delete an episode, its jobs, and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				if err := c.DeleteEpisode(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Episode %s deleted\n", args[0])
				return nil
			})
		},
	}
}
