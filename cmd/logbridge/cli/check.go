package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkingovr/logbridge/api"
)

var (
	checkRoute  string
	checkMethod string
	checkStatus int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run level selection for one exchange",
	Long: `Check which filter and level an exchange would get without serving
any traffic. Useful for testing and debugging filter order.`,
	Example: `  logbridge check -c logbridge.yaml --route "GET /users/{id}" --method GET --status 404
  logbridge check -c logbridge.yaml --method POST --status 500`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkRoute, "route", "", "route name (empty for none)")
	checkCmd.Flags().StringVar(&checkMethod, "method", "GET", "HTTP method")
	checkCmd.Flags().IntVar(&checkStatus, "status", 200, "response status code")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config/-c is required for check command")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	ex := &api.Exchange{
		Route:  checkRoute,
		Method: checkMethod,
		Status: checkStatus,
	}
	result, err := engine.Evaluate(ctx, ex)
	if err != nil {
		return fmt.Errorf("evaluation error: %w", err)
	}

	output := struct {
		Logged  bool        `json:"logged"`
		Level   string      `json:"level,omitempty"`
		Filter  string      `json:"filter,omitempty"`
		Options api.Options `json:"options,omitempty"`
	}{
		Logged: result.Matched,
	}
	if result.Matched {
		output.Level = result.Level.String()
		output.Filter = result.Filter
		output.Options = result.Options
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
