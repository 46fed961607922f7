// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package spreadsheet

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/catalogit/core"
)

// Aggregate maps each distinct product name to its problems and category.
// Products keep the order in which they first appeared.
type Aggregate struct {
	products []*core.AggregatedProblem
	byName   map[string]*core.AggregatedProblem

	// SkippedRows lists the rows dropped for missing problem or product.
	SkippedRows []error
}

// Products returns the aggregated entries in first-seen order.
func (a *Aggregate) Products() []*core.AggregatedProblem {
	return a.products
}

// Get returns the entry for a trimmed product name.
func (a *Aggregate) Get(name string) (*core.AggregatedProblem, bool) {
	p, ok := a.byName[name]
	return p, ok
}

// Len returns the number of distinct products.
func (a *Aggregate) Len() int {
	return len(a.products)
}

// ProblemCount returns the total number of distinct problem mappings.
func (a *Aggregate) ProblemCount() int {
	n := 0
	for _, p := range a.products {
		n += len(p.Problems)
	}
	return n
}

// ParseRows aggregates rows by trimmed product name. Malformed rows and rows
// missing a problem or product are dropped with a warning. The category of the first
// occurrence wins and duplicate problems are ignored.
func ParseRows(rows []Row, logger *slog.Logger) *Aggregate {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "spreadsheet")

	agg := &Aggregate{byName: make(map[string]*core.AggregatedProblem)}
	for _, row := range rows {
		if row.Err != nil {
			agg.SkippedRows = append(agg.SkippedRows, row.Err)
			logger.Warn("skipping malformed row", "line", row.Line, "err", row.Err)
			continue
		}
		problem := strings.TrimSpace(row.Problem)
		product := strings.TrimSpace(row.Product)
		if problem == "" || product == "" {
			err := core.NewValidationError(fmt.Sprintf("line %d", row.Line), fmt.Errorf("missing problem or product"))
			agg.SkippedRows = append(agg.SkippedRows, err)
			logger.Warn("skipping row", "line", row.Line, "problem", problem, "product", product)
			continue
		}

		entry, ok := agg.byName[product]
		if !ok {
			entry = &core.AggregatedProblem{
				ProductName: product,
				Category:    strings.TrimSpace(row.Category),
			}
			agg.byName[product] = entry
			agg.products = append(agg.products, entry)
		}
		if !slices.Contains(entry.Problems, problem) {
			entry.Problems = append(entry.Problems, problem)
		}
	}

	logger.Info("aggregated spreadsheet",
		"rows", len(rows),
		"products", agg.Len(),
		"problems", agg.ProblemCount(),
		"skipped", len(agg.SkippedRows))
	return agg
}
