package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/iconidentify/dlmaster/internal/service"
)

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderOffers renders the offer menu as a table. Plain output uses ASCII
// borders so it survives pipes and logs.
func renderOffers(info *service.InfoResult, pretty bool) string {
	tw := table.NewWriter()
	if pretty {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	tw.AppendHeader(table.Row{"#", "Label", "Type", "Ext", "Size", "Selector", "Filename"})
	for i, o := range info.Formats {
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			o.Label,
			string(o.Kind),
			o.Ext,
			o.Filesize,
			o.SelectorToken,
			o.Filename,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
