package optimize

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/governor/cmd/util"
	"github.com/bacalhau-project/governor/cmd/util/flags/cliflags"
	"github.com/bacalhau-project/governor/cmd/util/output"
	"github.com/bacalhau-project/governor/pkg/models"
)

const (
	SourceRule   = "rule"
	SourceLedger = "ledger"
)

type OptimizeOptions struct {
	OutputOpts output.OutputOptions
}

func NewOptimizeOptions() *OptimizeOptions {
	return &OptimizeOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	o := NewOptimizeOptions()
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Sample the host once and print optimization recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	optimizeCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	return optimizeCmd
}

// Row is a recommendation tagged with the component that produced it.
type Row struct {
	Source string `json:"Source"`
	models.OptimizationRecommendation
}

var columns = []output.TableColumn[Row]{
	{
		ColumnConfig: table.ColumnConfig{Name: "priority"},
		Value:        func(r Row) string { return strconv.Itoa(r.Priority) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "source"},
		Value:        func(r Row) string { return r.Source },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "type"},
		Value:        func(r Row) string { return string(r.Type) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "resource"},
		Value:        func(r Row) string { return r.ResourceType.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "impact"},
		Value:        func(r Row) string { return string(r.Impact) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "message", WidthMax: 80},
		Value:        func(r Row) string { return r.Message },
	},
}

func (o *OptimizeOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	gov, err := util.NewGovernor(ctx, nil)
	if err != nil {
		return err
	}

	tick := gov.Tick(ctx)
	rows := make([]Row, 0, len(tick.Recommendations)+len(tick.Ledger.Recommendations))
	for _, rec := range tick.Recommendations {
		rows = append(rows, Row{Source: SourceRule, OptimizationRecommendation: rec})
	}
	for _, rec := range tick.Ledger.Recommendations {
		rows = append(rows, Row{Source: SourceLedger, OptimizationRecommendation: rec})
	}
	return output.Output(cmd, columns, o.OutputOpts, rows)
}
