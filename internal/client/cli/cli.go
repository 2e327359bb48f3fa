package cli

import (
	"context"
	"fmt"

	"github.com/vkarasev/datalab/internal/client/iocli"
	pkgapi "github.com/vkarasev/datalab/pkg/api"
)

// SessionService is the part of the session manager the commands use
type SessionService interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
	IsAuthenticated() bool
	User() *pkgapi.User
}

// APIClient is the part of the API client the commands use.
// Все вызовы идут через аутентифицированный pipeline с автоматическим
// refresh-повтором; командам об этом знать не нужно.
type APIClient interface {
	CurrentUser(ctx context.Context) (*pkgapi.User, error)
	ListProjects(ctx context.Context) ([]pkgapi.Project, error)
	CreateProject(ctx context.Context, req pkgapi.CreateProjectRequest) (*pkgapi.Project, error)
	DeleteProject(ctx context.Context, projectID int64) error
	ListDatasets(ctx context.Context, projectID int64) ([]pkgapi.Dataset, error)
	GetDatasetSummary(ctx context.Context, projectID, datasetID int64) (*pkgapi.DatasetSummary, error)
}

type Cli struct {
	session SessionService
	client  APIClient
	io      iocli.IO
}

func New(session SessionService, client APIClient, io iocli.IO) *Cli {
	return &Cli{
		session: session,
		client:  client,
		io:      io,
	}
}

// Run выполняет одну команду
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.runLogin(ctx)
	case "register":
		return c.runRegister(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "projects":
		return c.runProjects(ctx)
	case "project-create":
		return c.runProjectCreate(ctx)
	case "project-delete":
		return c.runProjectDelete(ctx, args)
	case "datasets":
		return c.runDatasets(ctx, args)
	case "summary":
		return c.runSummary(ctx, args)
	default:
		PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func PrintUsage() {
	fmt.Println("DataLab Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  datalab [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version      Show version information")
	fmt.Println("  --server URL   Server URL (default: http://localhost:8080, env: DATALAB_SERVER)")
	fmt.Println("  --db PATH      Path to local database (default: datalab-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login                     Login to server")
	fmt.Println("  register                  Register new user")
	fmt.Println("  logout                    Logout (deletes the local session)")
	fmt.Println("  status                    Show authentication status")
	fmt.Println("  whoami                    Show current user (asks the server)")
	fmt.Println("  projects                  List projects")
	fmt.Println("  project-create            Create a new project")
	fmt.Println("  project-delete <id>       Delete a project")
	fmt.Println("  datasets <project-id>     List datasets of a project")
	fmt.Println("  summary <project-id> <dataset-id>")
	fmt.Println("                            Show dataset statistics")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  datalab login")
	fmt.Println("  datalab projects")
	fmt.Println("  datalab datasets 10")
	fmt.Println("  datalab summary 10 20")
	fmt.Println("  datalab --server https://datalab.example.com login")
}
