package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func (c *Cli) runDatasets(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: datalab datasets <project-id>")
	}

	projectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid project id %q", args[0])
	}

	datasets, err := c.client.ListDatasets(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	if len(datasets) == 0 {
		c.io.Println("No datasets in this project.")
		return nil
	}

	c.io.Printf("%-6s %-24s %-8s %s\n", "ID", "NAME", "ROWS", "COLUMNS")
	for _, d := range datasets {
		c.io.Printf("%-6d %-24s %-8d %s\n", d.ID, d.Name, d.Rows, strings.Join(d.Columns, ", "))
	}

	return nil
}

func (c *Cli) runSummary(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: datalab summary <project-id> <dataset-id>")
	}

	projectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid project id %q", args[0])
	}
	datasetID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid dataset id %q", args[1])
	}

	summary, err := c.client.GetDatasetSummary(ctx, projectID, datasetID)
	if err != nil {
		return fmt.Errorf("failed to get dataset summary: %w", err)
	}

	if len(summary.Columns) == 0 {
		c.io.Println("No numeric columns in this dataset.")
		return nil
	}

	// Колонки в стабильном порядке
	names := make([]string, 0, len(summary.Columns))
	for name := range summary.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	c.io.Printf("%-16s %-8s %-10s %-10s %-10s %-10s %-10s\n",
		"COLUMN", "COUNT", "MEAN", "MEDIAN", "STDDEV", "MIN", "MAX")
	for _, name := range names {
		col := summary.Columns[name]
		c.io.Printf("%-16s %-8d %-10.3f %-10.3f %-10.3f %-10.3f %-10.3f\n",
			name, col.Count, col.Mean, col.Median, col.StdDev, col.Min, col.Max)
	}

	return nil
}
