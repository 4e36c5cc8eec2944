package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/hh-interviewer/internal/flow"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show stage plans per round type and the completion triggers",
	Run: func(_ *cobra.Command, _ []string) {
		printPlans(os.Stdout, viper.GetInt("interview.max-questions"))
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
}

func printPlans(w io.Writer, maxQuestions int) {
	fmt.Fprintln(w, "Round plans:")
	for _, rt := range flow.RoundTypes() {
		plan := flow.PlanFor(rt)
		stages := make([]string, 0, len(plan.Stages))
		for _, q := range plan.Stages {
			stages = append(stages, fmt.Sprintf("%s x%d", q.Stage, q.Questions))
		}
		fmt.Fprintf(w, "  %-11s %s\n", rt, strings.Join(stages, " -> "))
	}

	if maxQuestions <= 0 {
		maxQuestions = flow.DefaultMaxQuestions
	}

	fmt.Fprintln(w, "\nCompletion triggers (first match wins):")
	for i, st := range flow.Describe(flow.DefaultTriggers(maxQuestions)) {
		fmt.Fprintf(w, "  %d. %s\n", i+1, st)
	}
}
