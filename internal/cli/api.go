package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luvatrix/planops/internal/api"
)

var (
	apiBody      string
	apiBodyFile  string
	apiApply     bool
	apiForce     bool
	apiForceDeps bool
	apiCascade   bool
	apiArchived  bool
)

var apiCmd = &cobra.Command{
	Use:   "api <METHOD> <resource>[/<id>]",
	Short: "Run one ledger operation (dry run by default)",
	Long: `Run one GET, POST, PATCH, or DELETE operation against the ledger.

Mutations validate the would-be ledger and stop as a dry run unless
--apply is passed. DELETE never destroys data: records move to the
archived partition and keep counting as Done for the unlock rule.`,
	Example: `  # Inspect a milestone
  planops api GET milestones/M-010

  # Create a task (dry run)
  planops api POST tasks --body '{"id":"T-1003","title":"measure latency","milestone_id":"M-010","status":"Backlog"}'

  # Mark it done for real
  planops api PATCH tasks/T-1003 --body '{"status":"Done"}' --apply

  # Archive a milestone together with its tasks
  planops api DELETE milestones/M-008 --force --apply`,
	Args: cobra.ExactArgs(2),
	RunE: runAPI,
}

func init() {
	apiCmd.Flags().StringVar(&apiBody, "body", "", "Inline JSON request body")
	apiCmd.Flags().StringVar(&apiBodyFile, "body-file", "", "Path to a JSON request body ('-' for stdin)")
	apiCmd.Flags().BoolVar(&apiApply, "apply", false, "Persist the mutation and regenerate artifacts")
	apiCmd.Flags().BoolVar(&apiForce, "force", false, "DELETE milestones: archive contained tasks and strip references")
	apiCmd.Flags().BoolVar(&apiForceDeps, "force-remove-deps", false, "DELETE tasks: rewrite depends_on lists that point at the task")
	apiCmd.Flags().BoolVar(&apiCascade, "cascade-reset", false, "Reopening mutations revert completed dependents")
	apiCmd.Flags().BoolVar(&apiArchived, "archived", false, "GET: read the archived partition")
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	resource, id := splitTarget(args[1])

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	body, err := readBody()
	if err != nil {
		return err
	}

	srv := &api.Server{
		Dir:      cfg.PlanningDir,
		Pipeline: pipelineOptions(cfg),
		Logger:   newLogger(cfg),
	}

	res, err := srv.Execute(cmd.Context(), api.Request{
		Method:          method,
		Resource:        resource,
		ID:              id,
		Archived:        apiArchived,
		Body:            body,
		Apply:           apiApply,
		Force:           apiForce,
		ForceRemoveDeps: apiForceDeps,
		CascadeReset:    apiCascade || cfg.CascadeReset,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// splitTarget parses "tasks/T-1003" into resource and id.
func splitTarget(target string) (resource, id string) {
	parts := strings.SplitN(target, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

func readBody() (json.RawMessage, error) {
	switch {
	case apiBody != "" && apiBodyFile != "":
		return nil, &CLIError{
			Category: CategoryUsage,
			Message:  "--body and --body-file are mutually exclusive",
			Usage:    "planops api <METHOD> <resource>[/<id>] [--body JSON | --body-file PATH]",
		}
	case apiBody != "":
		return json.RawMessage(apiBody), nil
	case apiBodyFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading body from stdin: %w", err)
		}
		return data, nil
	case apiBodyFile != "":
		data, err := os.ReadFile(apiBodyFile)
		if err != nil {
			return nil, fmt.Errorf("reading body file: %w", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}
