// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fixture

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StatusAtRisk is the status label the dataset uses for troubled projects.
const StatusAtRisk = "At Risk"

// AtRiskUtilization is the share of budget spent at which a project is
// flagged even when its status says otherwise.
const AtRiskUtilization = 0.9

// Utilization returns Spent / Budget, or 0 for a zero budget.
func (p Project) Utilization() float64 {
	if p.Budget == 0 {
		return 0
	}
	return p.Spent / p.Budget
}

// Remaining returns Budget - Spent. Negative when over budget.
func (p Project) Remaining() float64 {
	return p.Budget - p.Spent
}

// OverBudget reports whether Spent exceeds Budget.
func (p Project) OverBudget() bool {
	return p.Spent > p.Budget
}

// AtRisk reports whether the project is flagged at risk by status or burn.
func (p Project) AtRisk() bool {
	return strings.EqualFold(p.Status, StatusAtRisk) || p.Utilization() >= AtRiskUtilization
}

// Summary aggregates a dataset.
type Summary struct {
	Projects    int
	TotalBudget float64
	TotalSpent  float64
	TeamMembers int
	ByStatus    map[string]int
	AtRisk      []Project
}

// Utilization returns TotalSpent / TotalBudget, or 0 for a zero budget.
func (s Summary) Utilization() float64 {
	if s.TotalBudget == 0 {
		return 0
	}
	return s.TotalSpent / s.TotalBudget
}

// Summarize computes portfolio totals for d.
func (d Dataset) Summarize() Summary {
	s := Summary{
		Projects: len(d.Projects),
		ByStatus: make(map[string]int),
	}
	for _, p := range d.Projects {
		s.TotalBudget += p.Budget
		s.TotalSpent += p.Spent
		s.TeamMembers += p.TeamSize
		s.ByStatus[p.Status]++
		if p.AtRisk() {
			s.AtRisk = append(s.AtRisk, p)
		}
	}
	return s
}

// =============================================================================
// FORMATTING
// =============================================================================

// Formatter renders dataset numbers for a locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Money formats whole currency units with grouping, e.g. "$150,000".
func (f *Formatter) Money(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return f.printer.Sprintf("-$%d", -rounded)
	}
	return f.printer.Sprintf("$%d", rounded)
}

// Percent formats a ratio as a percentage with one decimal, e.g. "30.0%".
func (f *Formatter) Percent(ratio float64) string {
	return f.printer.Sprintf("%.1f%%", ratio*100)
}

// Count formats an integer with grouping.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}
