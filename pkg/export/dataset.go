package export

import "fmt"

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []Row
}

// Row is one table line. When Banner is set the row keeps only its first cell
// and renders Banner across the remaining columns.
type Row struct {
	Cells  []string
	Banner string
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}

// record returns the row padded or trimmed to width columns.
func (r Row) record(width int) []string {
	out := make([]string, width)
	if r.Banner != "" {
		if len(r.Cells) > 0 {
			out[0] = r.Cells[0]
		}
		if width > 1 {
			out[1] = r.Banner
		}
		return out
	}
	copy(out, r.Cells)
	return out
}
