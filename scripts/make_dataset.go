// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// make_dataset assembles a scoring dataset from docparse descriptors and two
// docstring maps.
//
// Usage:
//
//	docparse < mymodule.py > descriptors.json
//	go run scripts/make_dataset.go \
//	    -descriptors descriptors.json \
//	    -references references.json \
//	    -candidates candidates.json > dataset.json
//
// references.json and candidates.json map function names to docstrings:
//
//	{"add": "Returns the sum of two numbers.", "connect": "Opens a session."}
//
// Each descriptor pairs with its reference and candidate docstring by
// function name; the descriptor body becomes the entry's source_code.
// Functions missing from either map are skipped with a note on stderr, so
// partial candidate sets still produce a scoreable dataset. Functions
// sharing a name (methods on different classes) all pair with the same
// docstrings.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// descriptor is the subset of the docparse output this tool needs.
type descriptor struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

type datasetEntry struct {
	Reference  string `json:"reference"`
	Candidate  string `json:"candidate"`
	SourceCode string `json:"source_code"`
}

type datasetFile struct {
	Dataset []datasetEntry `json:"dataset"`
}

func main() {
	descriptorsPath := flag.String("descriptors", "", "docparse output JSON (required)")
	referencesPath := flag.String("references", "", "function name -> reference docstring JSON (required)")
	candidatesPath := flag.String("candidates", "", "function name -> candidate docstring JSON (required)")
	flag.Parse()

	if *descriptorsPath == "" || *referencesPath == "" || *candidatesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var descriptors []descriptor
	mustLoad(*descriptorsPath, &descriptors)

	references := map[string]string{}
	mustLoad(*referencesPath, &references)

	candidates := map[string]string{}
	mustLoad(*candidatesPath, &candidates)

	// Keep descriptor order: it follows source order, so report indices
	// line up with the module top to bottom.
	out := datasetFile{Dataset: make([]datasetEntry, 0, len(descriptors))}
	for _, d := range descriptors {
		ref, ok := references[d.Name]
		if !ok {
			fmt.Fprintf(os.Stderr, "skipping %s: no reference docstring\n", d.Name)
			continue
		}
		cand, ok := candidates[d.Name]
		if !ok {
			fmt.Fprintf(os.Stderr, "skipping %s: no candidate docstring\n", d.Name)
			continue
		}
		out.Dataset = append(out.Dataset, datasetEntry{
			Reference:  ref,
			Candidate:  cand,
			SourceCode: d.Body,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode dataset: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))

	fmt.Fprintf(os.Stderr, "dataset: %d entries from %d functions\n",
		len(out.Dataset), len(descriptors))
}

// mustLoad reads a JSON file into v or exits.
func mustLoad(path string, v interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := json.Unmarshal(data, v); err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", path, err)
		os.Exit(1)
	}
}
