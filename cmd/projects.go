package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/curaious/folio/internal/services"
	"github.com/curaious/folio/internal/services/project"
	"github.com/curaious/folio/internal/services/project/editor"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage portfolio projects (requires an admin session)",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

// adminRun opens services, checks the admin session and runs fn.
func adminRun(fn func(cmd *cobra.Command, args []string, svc *services.Services) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := requireSession(cmd.Context(), svc); err != nil {
			return err
		}
		return fn(cmd, args, svc)
	}
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects in display order",
	RunE: adminRun(func(cmd *cobra.Command, args []string, svc *services.Services) error {
		return printProjects(cmd.OutOrStdout(), svc.Projects.List())
	}),
}

var projectsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count projects by category",
	RunE: adminRun(func(cmd *cobra.Command, args []string, svc *services.Services) error {
		return printStats(cmd.OutOrStdout(), svc.Projects.Stats())
	}),
}

var projectsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a project",
	RunE: adminRun(func(cmd *cobra.Command, args []string, svc *services.Services) error {
		f := editor.New()
		if err := applyFlags(f, cmd.Flags()); err != nil {
			return err
		}
		return submit(cmd.Context(), cmd.OutOrStdout(), f, svc.Projects)
	}),
}

var projectsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a project; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: adminRun(func(cmd *cobra.Command, args []string, svc *services.Services) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		existing, err := svc.Projects.Get(id)
		if err != nil {
			return err
		}

		f := editor.Edit(existing)
		if err := applyFlags(f, cmd.Flags()); err != nil {
			return err
		}
		return submit(cmd.Context(), cmd.OutOrStdout(), f, svc.Projects)
	}),
}

var projectsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a project",
	Args:  cobra.ExactArgs(1),
	RunE: adminRun(func(cmd *cobra.Command, args []string, svc *services.Services) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		rec, err := svc.Projects.Get(id)
		if errors.Is(err, project.ErrProjectNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No project with id %d\n", id)
			return nil
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Are you sure you want to delete %q?", rec.Title)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}

		c, err := svc.Projects.Remove(cmd.Context(), id)
		if err := warnPersistence(cmd.ErrOrStderr(), err); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed project %d, %d remaining\n", id, len(c))
		return nil
	}),
}

var projectsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every project to a JSON snapshot",
	RunE: adminRun(func(cmd *cobra.Command, args []string, svc *services.Services) error {
		data, err := svc.Projects.ExportSnapshot()
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}

		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d projects to %s\n", len(svc.Projects.List()), out)
		return nil
	}),
}

var projectsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace every project with the contents of a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: adminRun(func(cmd *cobra.Command, args []string, svc *services.Services) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		c, err := svc.Projects.ImportSnapshot(cmd.Context(), data)
		if errors.Is(err, project.ErrMalformedImport) {
			return fmt.Errorf("invalid file format: %w", err)
		}
		if err := warnPersistence(cmd.ErrOrStderr(), err); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects\n", len(c))
		return nil
	}),
}

// applyFlags copies every flag the user set into the form.
func applyFlags(f *editor.Form, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(fl *pflag.Flag) {
		if err != nil {
			return
		}

		switch fl.Name {
		case "title":
			f.SetTitle(fl.Value.String())
		case "description":
			f.SetDescription(fl.Value.String())
		case "image":
			f.SetImage(fl.Value.String())
		case "live-url":
			f.SetLiveURL(fl.Value.String())
		case "github-url":
			f.SetGithubURL(fl.Value.String())
		case "featured":
			v, _ := flags.GetBool("featured")
			f.SetFeatured(v)
		case "category":
			if cerr := f.SetCategory(project.Category(fl.Value.String())); cerr != nil {
				err = fmt.Errorf("%w: %q", cerr, fl.Value.String())
			}
		case "tech":
			tags, _ := flags.GetStringArray("tech")
			for _, tag := range tags {
				f.AddTech(tag)
			}
		case "remove-tech":
			tags, _ := flags.GetStringArray("remove-tech")
			for _, tag := range tags {
				f.RemoveTech(tag)
			}
		}
	})
	return err
}

func submit(ctx context.Context, w io.Writer, f *editor.Form, u editor.Upserter) error {
	isEdit := f.IsEdit()

	c, err := f.Submit(ctx, u)
	var verr *editor.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("please check the project fields: %w", verr)
	}
	if err := warnPersistence(w, err); err != nil {
		return err
	}

	if isEdit {
		fmt.Fprintf(w, "Updated project %d\n", f.Record().ID)
		return nil
	}
	fmt.Fprintf(w, "Added project %d\n", c[len(c)-1].ID)
	return nil
}

// warnPersistence reports a failed save without failing the command: the
// change was applied but may not survive a reload.
func warnPersistence(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, project.ErrPersistenceUnavailable) {
		slog.Warn("Change applied but not saved", slog.Any("error", err))
		fmt.Fprintln(w, "warning: the change could not be saved and may be lost")
		return nil
	}
	return err
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project id %q", raw)
	}
	return id, nil
}

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Project title")
	cmd.Flags().String("description", "", "Project description")
	cmd.Flags().String("image", "", "Image URL or path")
	cmd.Flags().String("live-url", "", "Live demo URL")
	cmd.Flags().String("github-url", "", "Source repository URL")
	cmd.Flags().String("category", "", "One of frontend, fullstack, backend")
	cmd.Flags().Bool("featured", false, "Show on the featured list")
	cmd.Flags().StringArray("tech", nil, "Technology tag, repeatable")
}

func init() {
	addRecordFlags(projectsAddCmd)
	addRecordFlags(projectsEditCmd)
	projectsEditCmd.Flags().StringArray("remove-tech", nil, "Technology tag to remove, repeatable")

	projectsRemoveCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	projectsExportCmd.Flags().StringP("output", "o", project.SnapshotFilename, "Output file, - for stdout")

	projectsCmd.AddCommand(projectsListCmd, projectsStatsCmd, projectsAddCmd, projectsEditCmd, projectsRemoveCmd, projectsExportCmd, projectsImportCmd)
	rootCmd.AddCommand(projectsCmd)
}
