// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders evaluation results in the fixed textual format.
//
// Downstream tooling parses this output, so the column order, labels,
// spacing, and the ragged colon alignment of the corpus block are a
// compatibility contract. Do not tidy them.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/doceval/services/evaluation/scoring"
)

const (
	headerTitle  = "Function-Level Metrics:"
	columnHeader = "Index | ParamCov | ReturnCov | Containment | Usefulness | SBERT-Sim | ROUGE-L"
	rowFormat    = "%-5d | %.3f     | %.3f      | %.3f       | %.3f     | %.3f     | %.3f\n"

	dividerWidth = 90
)

// Printer writes evaluation reports to a single destination.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes the full report: the per-entry table followed by the
// corpus summary block.
//
// Skipped results (Err set) are omitted from the table; their indices
// simply do not appear. BLEU is a corpus-level metric only and has no
// per-entry column.
func (p *Printer) Print(results []scoring.EntryResult, corpus scoring.CorpusMetrics) error {
	if err := p.printHeader(); err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if err := p.printRow(r.Index, r.Metrics); err != nil {
			return err
		}
	}
	return p.printCorpus(corpus)
}

func (p *Printer) printHeader() error {
	if _, err := fmt.Fprintln(p.w, headerTitle); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(p.w, columnHeader); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.w, strings.Repeat("-", dividerWidth))
	return err
}

func (p *Printer) printRow(index int, m scoring.PerItemMetrics) error {
	_, err := fmt.Fprintf(p.w, rowFormat,
		index,
		m.ParamCoverage,
		m.ReturnCoverage,
		m.Containment,
		m.Usefulness,
		m.SemanticSimilarity,
		m.RougeL,
	)
	return err
}

func (p *Printer) printCorpus(c scoring.CorpusMetrics) error {
	lines := []struct {
		label string
		value float64
	}{
		{"Average Parameter Coverage : %.3f\n", c.AvgParamCoverage},
		{"Average Return Coverage    : %.3f\n", c.AvgReturnCoverage},
		{"Average Containment       : %.3f\n", c.AvgContainment},
		{"Average Usefulness        : %.3f\n", c.AvgUsefulness},
		{"Average SBERT Similarity  : %.3f\n", c.AvgSemanticSimilarity},
		{"Average ROUGE-L           : %.3f\n", c.AvgRougeL},
		{"BLEU                      : %.3f\n", c.BLEU},
	}

	if _, err := fmt.Fprintf(p.w, "\nCorpus-level Metrics:\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(p.w, line.label, line.value); err != nil {
			return err
		}
	}
	return nil
}
