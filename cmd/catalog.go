package cmd

import (
	"github.com/spf13/cobra"

	"github.com/curaious/folio/internal/services/project"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the public catalog, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawCategory, _ := cmd.Flags().GetString("category")
		category, err := project.ParseCategoryFilter(rawCategory)
		if err != nil {
			return err
		}
		search, _ := cmd.Flags().GetString("search")

		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		return printProjects(cmd.OutOrStdout(), svc.Catalog.View(cmd.Context(), project.Filter{Category: category, Search: search}))
	},
}

func init() {
	catalogCmd.Flags().String("category", string(project.CategoryAll), "all, frontend, fullstack or backend")
	catalogCmd.Flags().String("search", "", "Case-insensitive text to look for in titles, descriptions and technologies")

	rootCmd.AddCommand(catalogCmd)
}
