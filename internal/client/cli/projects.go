package cli

import (
	"context"
	"fmt"
	"strconv"

	pkgapi "github.com/vkarasev/datalab/pkg/api"
)

func (c *Cli) runProjects(ctx context.Context) error {
	projects, err := c.client.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		c.io.Println("No projects yet. Run 'datalab project-create' to create one.")
		return nil
	}

	c.io.Printf("%-6s %-24s %s\n", "ID", "NAME", "CREATED")
	for _, p := range projects {
		c.io.Printf("%-6d %-24s %s\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

func (c *Cli) runProjectCreate(ctx context.Context) error {
	name, err := c.io.ReadInput("Project name: ")
	if err != nil {
		return fmt.Errorf("failed to read project name: %w", err)
	}
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	description, err := c.io.ReadInput("Description (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read description: %w", err)
	}

	project, err := c.client.CreateProject(ctx, pkgapi.CreateProjectRequest{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	c.io.Printf("✓ Project created (id %d)\n", project.ID)
	return nil
}

func (c *Cli) runProjectDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: datalab project-delete <id>")
	}

	projectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid project id %q", args[0])
	}

	if err := c.client.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	c.io.Printf("✓ Project %d deleted\n", projectID)
	return nil
}
