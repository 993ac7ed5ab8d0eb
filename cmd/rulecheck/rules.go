package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/715d/rulecheck/pkg/lint"
)

type jRule struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List registered rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rules []jRule
			width := 0
			for _, id := range lint.Registered() {
				r, _ := lint.Lookup(id)
				rules = append(rules, jRule{ID: id, Description: r.Description()})
				width = max(width, len(id))
			}

			if cfg.JSON {
				data, err := json.MarshalIndent(rules, "", "  ")
				if err != nil {
					return errWithCode(fmt.Errorf("marshaling json output: %w", err), exitError)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			var output strings.Builder
			for _, r := range rules {
				output.WriteString(fmt.Sprintf("%-*s  %s\n", width, r.ID, r.Description))
			}
			fmt.Fprint(cmd.OutOrStdout(), output.String())
			return nil
		},
	}
}
