package usage

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/governor/cmd/util"
	"github.com/bacalhau-project/governor/cmd/util/flags/cliflags"
	"github.com/bacalhau-project/governor/cmd/util/output"
	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/models"
)

type UsageOptions struct {
	Host       bool
	OutputOpts output.OutputOptions
}

func NewUsageOptions() *UsageOptions {
	return &UsageOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	o := NewUsageOptions()
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Show allocated and available resources",
		Long: `Show allocated and available amounts per resource type as reported by the
configured providers. With --host the raw host sample is shown instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	usageCmd.Flags().BoolVar(&o.Host, "host", o.Host, "Show the host CPU, memory and disk sample.")
	usageCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	return usageCmd
}

// Row is the usage of one resource type.
type Row struct {
	Type        models.ResourceType `json:"Type"`
	Allocated   int64               `json:"Allocated"`
	Available   int64               `json:"Available"`
	Utilization float64             `json:"Utilization"`

	host bool
}

func (r Row) quantity(amount int64) string {
	if r.host && r.Type == models.ResourceTypeCPU {
		return fmt.Sprintf("%.2f%%", float64(amount)/models.CPUUnitsPerPercent)
	}
	return types.FormatQuantity(r.Type, amount)
}

var columns = []output.TableColumn[Row]{
	{
		ColumnConfig: table.ColumnConfig{Name: "type"},
		Value:        func(r Row) string { return r.Type.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "allocated", Align: text.AlignRight},
		Value:        func(r Row) string { return r.quantity(r.Allocated) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "available", Align: text.AlignRight},
		Value:        func(r Row) string { return r.quantity(r.Available) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "utilization", Align: text.AlignRight},
		Value:        func(r Row) string { return fmt.Sprintf("%.1f%%", r.Utilization) },
	},
}

func (o *UsageOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	gov, err := util.NewGovernor(ctx, nil)
	if err != nil {
		return err
	}

	var usage models.ResourceUsage
	if o.Host {
		usage = gov.Monitor().GetResourceUsage(ctx).ToResourceUsage()
	} else {
		usage = gov.Manager().GetUsage(ctx)
	}

	rows := make([]Row, 0, len(usage.Allocated))
	for _, t := range models.AllResourceTypes() {
		allocated, available := usage.Allocated[t], usage.Available[t]
		if o.Host && allocated == 0 && available == 0 {
			continue
		}
		rows = append(rows, Row{
			Type:        t,
			Allocated:   allocated,
			Available:   available,
			Utilization: usage.UtilizationOf(t),
			host:        o.Host,
		})
	}
	return output.Output(cmd, columns, o.OutputOpts, rows)
}
