package throttle

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/governor/cmd/util"
	"github.com/bacalhau-project/governor/cmd/util/flags"
	"github.com/bacalhau-project/governor/cmd/util/flags/cliflags"
	"github.com/bacalhau-project/governor/cmd/util/output"
	"github.com/bacalhau-project/governor/pkg/models"
)

type ThrottleOptions struct {
	Request    models.ThrottlingRequest
	OutputOpts output.OutputOptions
}

func NewThrottleOptions() *ThrottleOptions {
	return &ThrottleOptions{
		Request:    models.ThrottlingRequest{ResourceType: models.ResourceTypeCPU},
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	o := NewThrottleOptions()
	throttleCmd := &cobra.Command{
		Use:   "throttle",
		Short: "Show whether new work should be delayed given the current host load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	throttleCmd.Flags().StringVar(&o.Request.RequesterID, "requester", o.Request.RequesterID,
		"Identifier of the caller, recorded in logs.")
	throttleCmd.Flags().Var(flags.ResourceTypeFlag(&o.Request.ResourceType), "type",
		"Resource type the work mostly consumes.")
	throttleCmd.Flags().IntVar(&o.Request.Priority, "priority", o.Request.Priority,
		"Priority of the work. Lower is more urgent.")
	throttleCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	return throttleCmd
}

var columns = []output.TableColumn[models.ThrottlingResult]{
	{
		ColumnConfig: table.ColumnConfig{Name: "throttle"},
		Value:        func(r models.ThrottlingResult) string { return strconv.FormatBool(r.ShouldThrottle) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "level"},
		Value:        func(r models.ThrottlingResult) string { return r.Level.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "delay"},
		Value:        func(r models.ThrottlingResult) string { return r.RecommendedDelay.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "reason", WidthMax: 80},
		Value:        func(r models.ThrottlingResult) string { return r.Reason },
	},
}

func (o *ThrottleOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	gov, err := util.NewGovernor(ctx, nil)
	if err != nil {
		return err
	}
	result := gov.Optimizer().CalculateThrottling(ctx, o.Request)
	return output.OutputOne(cmd, columns, o.OutputOpts, result)
}
