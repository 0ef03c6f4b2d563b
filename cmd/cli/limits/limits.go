package limits

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/governor/cmd/util"
	"github.com/bacalhau-project/governor/cmd/util/flags/cliflags"
	"github.com/bacalhau-project/governor/cmd/util/output"
	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/models"
)

type LimitsOptions struct {
	OutputOpts output.OutputOptions
}

func NewLimitsOptions() *LimitsOptions {
	return &LimitsOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	o := NewLimitsOptions()
	limitsCmd := &cobra.Command{
		Use:   "limits",
		Short: "Show the effective limits of every resource type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	limitsCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	return limitsCmd
}

// Row is one resource type and its limit.
type Row struct {
	Type  models.ResourceType  `json:"Type"`
	Limit models.ResourceLimit `json:"Limit"`
}

func quantity(amount func(Row) int64) func(Row) string {
	return func(r Row) string {
		v := amount(r)
		if v == 0 {
			return "-"
		}
		return types.FormatQuantity(r.Type, v)
	}
}

var columns = []output.TableColumn[Row]{
	{
		ColumnConfig: table.ColumnConfig{Name: "type"},
		Value:        func(r Row) string { return r.Type.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "maximum", Align: text.AlignRight},
		Value:        quantity(func(r Row) int64 { return r.Limit.Maximum }),
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "soft", Align: text.AlignRight},
		Value:        quantity(func(r Row) int64 { return r.Limit.SoftLimit }),
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "hard", Align: text.AlignRight},
		Value:        quantity(func(r Row) int64 { return r.Limit.EffectiveHardLimit() }),
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "per request", Align: text.AlignRight},
		Value: func(r Row) string {
			p := r.Limit.Policy
			return fmt.Sprintf("%s..%s",
				quantity(func(Row) int64 { return p.MinPerRequest })(r),
				quantity(func(Row) int64 { return p.MaxPerRequest })(r))
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "timeout"},
		Value:        func(r Row) string { return r.Limit.Policy.Timeout.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "over-allocation"},
		Value: func(r Row) string {
			if !r.Limit.Policy.AllowOverAllocation {
				return "no"
			}
			return strconv.Itoa(r.Limit.Policy.OverAllocationPercent) + "%"
		},
	},
}

func (o *LimitsOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	gov, err := util.NewGovernor(ctx, nil)
	if err != nil {
		return err
	}

	limits := gov.Manager().GetLimits(ctx)
	rows := make([]Row, 0, len(limits))
	for _, t := range models.AllResourceTypes() {
		if limit, ok := limits[t]; ok {
			rows = append(rows, Row{Type: t, Limit: limit})
		}
	}
	return output.Output(cmd, columns, o.OutputOpts, rows)
}
