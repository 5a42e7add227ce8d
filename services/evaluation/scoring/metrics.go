// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

// PerItemMetrics is the metric vector of one scored entry.
//
// ParamCoverage, ReturnCoverage, Containment, RougeL and BLEU are in
// [0, 1]. SemanticSimilarity is a raw cosine in [-1, 1]. Usefulness is
// bounded above by 1.0 but can go negative when similarity is negative
// and no keyword hits.
type PerItemMetrics struct {
	ParamCoverage      float64 `json:"param_coverage"`
	ReturnCoverage     float64 `json:"return_coverage"`
	Containment        float64 `json:"containment"`
	Usefulness         float64 `json:"usefulness"`
	SemanticSimilarity float64 `json:"semantic_similarity"`
	RougeL             float64 `json:"rouge_l"`
	BLEU               float64 `json:"bleu"`
}

// CorpusMetrics holds the arithmetic means of per-item metrics across all
// scored entries. Entries counts the items that went into the averages;
// skipped entries never do.
type CorpusMetrics struct {
	AvgParamCoverage      float64 `json:"avg_param_coverage"`
	AvgReturnCoverage     float64 `json:"avg_return_coverage"`
	AvgContainment        float64 `json:"avg_containment"`
	AvgUsefulness         float64 `json:"avg_usefulness"`
	AvgSemanticSimilarity float64 `json:"avg_semantic_similarity"`
	AvgRougeL             float64 `json:"avg_rouge_l"`
	BLEU                  float64 `json:"bleu"`
	Entries               int     `json:"entries"`
}
