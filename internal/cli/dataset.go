// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// dataset.go - Show the company data the assistant answers from.
//
// Examples:
//
//	analyst dataset           Table of projects with totals
//	analyst dataset P003      One project
//	analyst dataset --json    The JSON embedded in the system context
//	analyst dataset --summary Totals and at-risk projects
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/jeranaias/projectanalyst/internal/fixture"
	"github.com/jeranaias/projectanalyst/internal/ui/render"
	"github.com/jeranaias/projectanalyst/internal/util"
)

type column struct {
	title string
	width int
}

var projectColumns = []column{
	{"ID", 6},
	{"Project", 26},
	{"Department", 14},
	{"Status", 12},
	{"Budget", 12},
	{"Spent", 12},
	{"Used", 7},
	{"Team", 5},
	{"Deadline", 10},
}

// HandleDataset prints the loaded dataset.
func HandleDataset(args Args, rt *Runtime) error {
	ds := rt.Dataset

	if id := args.Subcommand; id != "" {
		p, ok := ds.Project(id)
		if !ok {
			return &NotFoundError{Resource: "project", ID: id}
		}
		if args.JSON {
			return NewJSONResponse("dataset", p).Write(rt.Stdout)
		}
		printProject(rt.Stdout, p)
		return nil
	}

	if NewArgParser(args.Raw).BoolFlag("summary") {
		if args.JSON {
			return NewJSONResponse("dataset", summaryData(ds)).Write(rt.Stdout)
		}
		printSummary(rt.Stdout, ds)
		return nil
	}

	if args.JSON {
		out, err := ds.IndentedJSON()
		if err != nil {
			return err
		}
		if rt.Stdout == os.Stdout && ColorsEnabled() {
			out = render.Highlight(out, "json")
		}
		fmt.Fprintln(rt.Stdout, strings.TrimRight(out, "\n"))
		return nil
	}

	printDatasetTable(rt.Stdout, ds)
	if n, err := rt.Counter.Text(rt.Client.Model(), rt.Assembler.SystemContext()); err == nil {
		fmt.Fprintln(rt.Stdout, DimStyle.Render(fmt.Sprintf("System context: ~%d tokens", n)))
	}
	return nil
}

func printDatasetTable(w io.Writer, ds fixture.Dataset) {
	f := fixture.NewFormatter(language.AmericanEnglish)

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s · FY%d", ds.CompanyName, ds.FiscalYear)))

	var header strings.Builder
	for _, c := range projectColumns {
		header.WriteString(util.PadRight(c.title, c.width))
		header.WriteString(" ")
	}
	fmt.Fprintln(w, SectionStyle.UnsetMarginTop().Render(strings.TrimRight(header.String(), " ")))
	fmt.Fprintln(w, RenderSeparator(tableWidth()))

	for _, p := range ds.Projects {
		cells := []string{
			p.ID,
			p.Name,
			p.Department,
			p.Status,
			f.Money(p.Budget),
			f.Money(p.Spent),
			f.Percent(p.Utilization()),
			f.Count(p.TeamSize),
			p.Deadline.String(),
		}
		var row strings.Builder
		for i, c := range projectColumns {
			cell := util.PadRight(util.Truncate(cells[i], c.width), c.width)
			switch {
			case i == 5 && p.OverBudget():
				cell = ErrorStyle.Render(cell)
			case i == 3 && p.AtRisk():
				cell = WarningStyle.Render(cell)
			}
			row.WriteString(cell)
			row.WriteString(" ")
		}
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}

	fmt.Fprintln(w, RenderSeparator(tableWidth()))
	printSummary(w, ds)
}

// printSummary prints the totals line and the at-risk list.
func printSummary(w io.Writer, ds fixture.Dataset) {
	f := fixture.NewFormatter(language.AmericanEnglish)
	sum := ds.Summarize()
	fmt.Fprintf(w, "%s %s of %s spent (%s) across %s projects, %s people\n",
		RenderLabel("Totals:", 10),
		f.Money(sum.TotalSpent), f.Money(sum.TotalBudget), f.Percent(sum.Utilization()),
		f.Count(sum.Projects), f.Count(sum.TeamMembers))
	if len(sum.AtRisk) > 0 {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("At risk:", 10), WarningStyle.Render(strings.Join(atRiskIDs(sum), ", ")))
	}
}

func summaryData(ds fixture.Dataset) DatasetData {
	sum := ds.Summarize()
	return DatasetData{
		CompanyName: ds.CompanyName,
		FiscalYear:  ds.FiscalYear,
		Projects:    sum.Projects,
		TeamMembers: sum.TeamMembers,
		TotalBudget: sum.TotalBudget,
		TotalSpent:  sum.TotalSpent,
		AtRisk:      atRiskIDs(sum),
	}
}

func atRiskIDs(sum fixture.Summary) []string {
	ids := make([]string, len(sum.AtRisk))
	for i, p := range sum.AtRisk {
		ids[i] = p.ID
	}
	return ids
}

func printProject(w io.Writer, p fixture.Project) {
	f := fixture.NewFormatter(language.AmericanEnglish)
	fmt.Fprintln(w, TitleStyle.Render(p.Name))
	fields := [][2]string{
		{"ID:", p.ID},
		{"Department:", p.Department},
		{"Status:", p.Status},
		{"Budget:", f.Money(p.Budget)},
		{"Spent:", f.Money(p.Spent)},
		{"Remaining:", f.Money(p.Remaining())},
		{"Used:", f.Percent(p.Utilization())},
		{"Team size:", f.Count(p.TeamSize)},
		{"Deadline:", p.Deadline.String()},
	}
	for _, kv := range fields {
		fmt.Fprintf(w, "  %s %s\n", RenderLabel(kv[0], 14), kv[1])
	}
	if p.OverBudget() {
		fmt.Fprintf(w, "  %s over budget\n", RenderStatus("error"))
	} else if p.AtRisk() {
		fmt.Fprintf(w, "  %s at risk\n", RenderStatus("warn"))
	}
}

func tableWidth() int {
	w := 0
	for _, c := range projectColumns {
		w += c.width + 1
	}
	return w - 1
}
