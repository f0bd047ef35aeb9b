package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ccm/internal/research"
	"ccm/internal/simulation"
)

var interventionsCmd = &cobra.Command{
	Use:   "interventions",
	Short: "List the intervention catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := simulation.NewService(cfg)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tAREA")
		for _, iv := range service.Interventions.Unscaled() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", iv.Name, iv.Kind(), iv.Area)
		}
		return w.Flush()
	},
}

var (
	projectsFile  string
	projectsGroup string
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List research projects by group",
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectsFile != "" {
			cfg.ProjectsFile = projectsFile
		}
		service, err := simulation.NewService(cfg)
		if err != nil {
			return err
		}
		projects, err := service.Projects.Group(projectsGroup)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SHORT NAME\tCAUSE\tTARGET\tFUNDING")
		for _, p := range projects {
			target, profile := "", ""
			if p.TargetIntervention != nil {
				target = p.TargetIntervention.Name
			}
			if p.Profile != nil {
				profile = p.Profile.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ShortName, p.Cause, target, profile)
		}
		return w.Flush()
	},
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the parameters in effect as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cfg.Parameters()
		if err != nil {
			return err
		}
		data, err := p.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	projectsCmd.Flags().StringVar(&projectsFile, "file", "", "extra projects sheet (CSV or XLSX)")
	projectsCmd.Flags().StringVar(&projectsGroup, "group", research.GroupAll, "project group")
	rootCmd.AddCommand(interventionsCmd, projectsCmd, paramsCmd)
}
