package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/instance"
)

// StageView is one stage and its machines.
type StageView struct {
	ID       string   `json:"id"`
	Machines []string `json:"machines"`
}

// CastView is one cast and its charges in casting order.
type CastView struct {
	ID      string   `json:"id"`
	Charges []string `json:"charges"`
}

// ChargeView is one charge with its cast, due date and route.
type ChargeView struct {
	ID      string   `json:"id"`
	Cast    string   `json:"cast"`
	DueDate int      `json:"due_date"`
	Route   []string `json:"route"`
}

// ShowResult is the structured view of an instance.
type ShowResult struct {
	Instance    string       `json:"instance"`
	Routing     string       `json:"routing"`
	Fingerprint string       `json:"fingerprint"`
	Stages      []StageView  `json:"stages"`
	Casts       []CastView   `json:"casts"`
	Charges     []ChargeView `json:"charges"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <dir> <name>",
		Short:         "Print the stages, casts and charges of an instance",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, dir, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	inst, err := instance.Load(dir, name, opts.loadOptions(opts.logger(cmd.ErrOrStderr()))...)
	if err != nil {
		return loadFailed(formatter, name, err)
	}

	result, err := buildShowResult(inst)
	if err != nil {
		return WrapExitError(ExitCommandError, "fingerprint", err)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Instance %s (routing %s)\n", result.Instance, result.Routing)
	fmt.Fprintf(w, "Stages (%d):\n", len(result.Stages))
	for _, s := range result.Stages {
		fmt.Fprintf(w, "  %s: %s\n", s.ID, strings.Join(s.Machines, " "))
	}
	fmt.Fprintf(w, "Casts (%d):\n", len(result.Casts))
	for _, c := range result.Casts {
		fmt.Fprintf(w, "  %s: %s\n", c.ID, strings.Join(c.Charges, " "))
	}
	fmt.Fprintf(w, "Charges (%d):\n", len(result.Charges))
	for _, ch := range result.Charges {
		fmt.Fprintf(w, "  %s cast=%s due=%d route=%s\n", ch.ID, ch.Cast, ch.DueDate, strings.Join(ch.Route, ">"))
	}
	return nil
}

func buildShowResult(inst *instance.Instance) (ShowResult, error) {
	fp, err := inst.Fingerprint()
	if err != nil {
		return ShowResult{}, err
	}
	result := ShowResult{
		Instance:    inst.Name,
		Routing:     inst.Routing.String(),
		Fingerprint: fp,
	}
	for _, stage := range inst.Stages() {
		result.Stages = append(result.Stages, StageView{ID: stage, Machines: inst.Machines(stage)})
	}
	for _, id := range inst.CastIDs() {
		charges, _ := inst.Cast(id)
		result.Casts = append(result.Casts, CastView{ID: id, Charges: charges})
	}
	for _, ch := range inst.Charges() {
		cast, _ := inst.CastOf(ch)
		due, _ := inst.DueDate(ch)
		result.Charges = append(result.Charges, ChargeView{ID: ch, Cast: cast, DueDate: due, Route: inst.Route(ch)})
	}
	return result, nil
}
