package dataset

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// Render formats the whole result as an aligned text table with a leading
// row index column. NULL values print as None.
func Render(result Result) string {
	var buf bytes.Buffer
	writer := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := make([]string, 0, len(result.Columns)+1)
	header = append(header, "")
	header = append(header, result.Columns...)
	fmt.Fprintln(writer, strings.Join(header, "\t")+"\t")

	for index, row := range result.Rows {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, strconv.Itoa(index))
		for _, value := range row {
			cells = append(cells, formatValue(value))
		}
		fmt.Fprintln(writer, strings.Join(cells, "\t")+"\t")
	}
	_ = writer.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "None"
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case time.Time:
		return typed.Format("2006-01-02 15:04:05")
	case []byte:
		return string(typed)
	default:
		return fmt.Sprint(typed)
	}
}
