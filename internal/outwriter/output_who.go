package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteWhoResult outputs ranked contributors, dispatching based on the output format configured.
func WriteWhoResult(people []schema.Person, cfg *contract.Config) error {
	if _, ok := schema.ValidWhoOutputModes[cfg.Output]; !ok && cfg.Output != "" {
		return fmt.Errorf("%s output is not supported for who", cfg.Output)
	}
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWhoJSON(w, people)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWhoCSV(w, people)
		}, "Wrote CSV")
	case schema.ListOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWhoList(w, people)
		}, "Wrote list")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWhoTable(w, people)
		}, "Wrote table")
	}
}

// writeWhoTable renders the ranking as a table.
func writeWhoTable(w io.Writer, people []schema.Person) error {
	if len(people) == 0 {
		_, err := fmt.Fprintln(w, nothingFound)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Name", "Count"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(people))
	for i, p := range people {
		data = append(data, []string{strconv.Itoa(i + 1), p.Name, strconv.Itoa(p.Count)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeWhoList prints one "name (count)" line per person.
func writeWhoList(w io.Writer, people []schema.Person) error {
	for _, p := range people {
		if _, err := fmt.Fprintf(w, "%s (%d)\n", p.Name, p.Count); err != nil {
			return err
		}
	}
	return nil
}

func writeWhoCSV(w io.Writer, people []schema.Person) error {
	return writeCSVWithHeader(w, []string{"rank", "name", "count"}, func(cw *csv.Writer) error {
		for i, p := range people {
			if err := cw.Write([]string{strconv.Itoa(i + 1), p.Name, strconv.Itoa(p.Count)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeWhoJSON(w io.Writer, people []schema.Person) error {
	type rankedPerson struct {
		Rank int `json:"rank"`
		schema.Person
	}
	output := make([]rankedPerson, len(people))
	for i, p := range people {
		output[i] = rankedPerson{Rank: i + 1, Person: p}
	}
	return writeJSON(w, output)
}
