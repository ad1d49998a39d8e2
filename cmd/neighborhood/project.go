package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/ternarybob/neighborhood/internal/models"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		projects, err := application.ProjectService.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			cmd.Println("No projects")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMUNICIPALITY\tNAME\tPROVIDER\tSOURCES\tUPDATED")
		for _, p := range projects {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%s\t%d\t%s\n",
				p.ProjectID, p.MunicipalityName, p.ProjectName, p.AIProvider, p.ModelName,
				len(p.DataSources), humanize.Time(p.UpdatedAt))
		}
		return tw.Flush()
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <municipality> [project-name]",
	Short: "Create a project with default settings",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		project, err := application.ProjectService.CreateProject(cmd.Context(), args[0], name)
		if err != nil {
			return err
		}
		cmd.Printf("Created project %s (%s)\n", project.ProjectID, project.ProjectName)
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project's sources and index stats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		ctx := cmd.Context()
		project, err := application.ProjectService.GetProject(ctx, args[0])
		if err != nil {
			return err
		}
		stats, err := application.ProjectService.Stats(ctx, args[0])
		if err != nil {
			return err
		}

		cmd.Printf("%s (%s)\n", project.ProjectName, project.MunicipalityName)
		cmd.Printf("Backend: %s/%s\n", project.AIProvider, project.ModelName)
		cmd.Printf("Indexed chunks: %s\n", humanize.Comma(int64(stats.TotalDocuments)))
		cmd.Printf("Sources: %d (%d active)\n\n", stats.DataSources, stats.ActiveSources)

		printSources(cmd, project.DataSources)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project, its index and uploaded files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.ProjectService.DeleteProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted project %s\n", args[0])
		return nil
	},
}

var (
	sourceType        string
	sourceURL         string
	sourceName        string
	sourceDescription string
	sourceDisabled    bool
)

var sourceCmd = &cobra.Command{
	Use:     "source",
	Aliases: []string{"sources"},
	Short:   "Manage a project's data sources",
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Add a data source to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		source, err := application.ProjectService.AddSource(cmd.Context(), args[0], models.DataSource{
			Type:        models.DataSourceType(sourceType),
			URL:         sourceURL,
			Name:        sourceName,
			Description: sourceDescription,
			Enabled:     !sourceDisabled,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Added source %s\n", source.ID)
		return nil
	},
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove <project-id> <source-id>",
	Short: "Remove a data source and its indexed chunks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.ProjectService.RemoveSource(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Removed source %s\n", args[1])
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectShowCmd, projectDeleteCmd)

	sourceAddCmd.Flags().StringVarP(&sourceType, "type", "t", string(models.DataSourceWebsite), "Source type (website, website_rendered, youtube_playlist, youtube_video, pdf_url)")
	sourceAddCmd.Flags().StringVarP(&sourceURL, "url", "u", "", "Source URL")
	sourceAddCmd.Flags().StringVarP(&sourceName, "name", "n", "", "Display name")
	sourceAddCmd.Flags().StringVar(&sourceDescription, "description", "", "Description")
	sourceAddCmd.Flags().BoolVar(&sourceDisabled, "disabled", false, "Add the source disabled")
	_ = sourceAddCmd.MarkFlagRequired("url")
	_ = sourceAddCmd.MarkFlagRequired("name")

	sourceCmd.AddCommand(sourceAddCmd, sourceRemoveCmd)
}

func printSources(cmd *cobra.Command, sources []models.DataSource) {
	if len(sources) == 0 {
		cmd.Println("No sources")
		return
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tENABLED\tCHUNKS\tWORDS\tLAST SYNCED")
	for _, s := range sources {
		synced := "never"
		if s.LastSynced != nil {
			synced = humanize.Time(*s.LastSynced)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%s\t%s\n",
			s.ID, s.Type, s.Name, s.Enabled, s.DocumentCount, humanize.Comma(int64(s.WordCount)), synced)
	}
	tw.Flush()
}
