// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/justbuilt"
	"github.com/spf13/cobra"
)

func newModelsCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the planning models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := justbuilt.NewPlanner(e.Config, justbuilt.GenerateOptions{SkipInference: true}, e.Logger)
			if err != nil {
				return err
			}

			configured := e.Config.ModelID()
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "PROVIDER", "LOCAL", "AVAILABLE")
			for _, m := range p.Registry().List() {
				id := m.ID
				if m.ID == configured {
					id += "*"
				}
				t.Row(id, m.Name, m.Provider, fmt.Sprint(m.Local), fmt.Sprint(m.Available))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}
