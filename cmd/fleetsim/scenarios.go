package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"robofleet-sim/internal/scenario"
)

var recommendRobots int

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Inspect scenario presets",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in scenario presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printScenarios(cmd.OutOrStdout(), scenario.BuiltIn())
	},
}

var scenariosRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a scenario for a fleet size",
	RunE: func(cmd *cobra.Command, args []string) error {
		if recommendRobots < 1 {
			return fmt.Errorf("--robots must be at least 1")
		}
		fmt.Fprintln(cmd.OutOrStdout(), scenario.RecommendedScenario(recommendRobots))
		return nil
	},
}

func printScenarios(out io.Writer, infos []scenario.Info) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tPATTERN\tROBOTS\tDESCRIPTION")
	for _, in := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", in.Type, in.Name, in.Pattern, in.DefaultFleet, in.Description)
	}
	return tw.Flush()
}

func init() {
	scenariosRecommendCmd.Flags().IntVar(&recommendRobots, "robots", 0, "Number of robots in the fleet")
	_ = scenariosRecommendCmd.MarkFlagRequired("robots")
	scenariosCmd.AddCommand(scenariosListCmd, scenariosRecommendCmd)
}
