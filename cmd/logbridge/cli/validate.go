package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkingovr/logbridge/api"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse every filter and print them in matching order",
	Long: `Validate loads the config file, parses every filter definition and
prints the resulting rules in the order they are matched. Any
configuration error is reported and the command fails.`,
	Example: `  logbridge validate -c logbridge.yaml`,
	RunE:    runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type ruleOutput struct {
	Name     string      `json:"name"`
	Route    *string     `json:"route"`
	Methods  []string    `json:"method"`
	Statuses []int       `json:"status"`
	Level    api.Level   `json:"level"`
	Options  api.Options `json:"options,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config/-c is required for validate command")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rules, err := newRuleSet(cfg)
	if err != nil {
		return err
	}

	out := make([]ruleOutput, 0, rules.Len())
	for _, r := range rules.Rules() {
		o := ruleOutput{
			Name:     r.Name(),
			Methods:  r.Methods(),
			Statuses: r.Statuses(),
			Level:    r.Level(),
			Options:  r.Options(),
		}
		if route, ok := r.Route(); ok {
			o.Route = &route
		}
		out = append(out, o)
	}

	logger.Debug("config valid", "filters", len(out), "engine", cfg.Engine)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
