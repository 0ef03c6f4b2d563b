//go:build unit || !integration

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name  string
	Count int
}

var columns = []TableColumn[row]{
	{ColumnConfig: table.ColumnConfig{Name: "name"}, Value: func(r row) string { return r.Name }},
	{ColumnConfig: table.ColumnConfig{Name: "count"}, Value: func(r row) string { return strings.Repeat("x", r.Count) }},
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	return cmd, buf
}

func TestOutputCSV(t *testing.T) {
	cmd, buf := newCmd()
	err := Output(cmd, columns, OutputOptions{Format: CSVFormat}, []row{{"a", 1}, {"b", 2}})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(strings.ToLower(buf.String())), "\n")
	assert.Equal(t, []string{"name,count", "a,x", "b,xx"}, lines)
}

func TestOutputCSVHideHeader(t *testing.T) {
	cmd, buf := newCmd()
	err := OutputOne(cmd, columns, OutputOptions{Format: CSVFormat, HideHeader: true}, row{"a", 3})
	require.NoError(t, err)
	assert.Equal(t, "a,xxx", strings.TrimSpace(buf.String()))
}

func TestOutputJSON(t *testing.T) {
	cmd, buf := newCmd()
	err := Output(cmd, columns, OutputOptions{Format: JSONFormat}, []row{{"a", 1}})
	require.NoError(t, err)

	var out []row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []row{{"a", 1}}, out)
}

func TestOutputYAML(t *testing.T) {
	cmd, buf := newCmd()
	err := OutputOne(cmd, columns, OutputOptions{Format: YAMLFormat}, row{"a", 1})
	require.NoError(t, err)
	assert.Equal(t, "Count: 1\nName: a\n", buf.String())
}

func TestOutputInvalidFormat(t *testing.T) {
	cmd, _ := newCmd()
	assert.Error(t, OutputNonTabular(cmd, NonTabularOutputOptions{Format: "xml"}, row{}))
}
