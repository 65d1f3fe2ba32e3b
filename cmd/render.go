package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/curaious/folio/internal/services/project"
)

func printProjects(w io.Writer, c project.Collection) error {
	if len(c) == 0 {
		_, err := fmt.Fprintln(w, "No projects")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tFEATURED\tTECHNOLOGIES")
	for _, r := range c {
		featured := ""
		if r.Featured {
			featured = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Category, featured, strings.Join(r.Technologies, ", "))
	}
	return tw.Flush()
}

func printStats(w io.Writer, s project.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%d\n", s.Total)
	fmt.Fprintf(tw, "featured\t%d\n", s.Featured)
	for _, c := range project.Categories {
		fmt.Fprintf(tw, "%s\t%d\n", c, s.ByCategory[c])
	}
	return tw.Flush()
}

// confirm asks a yes/no question and defaults to no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
