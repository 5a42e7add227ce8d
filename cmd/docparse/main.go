// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command docparse reads Python source from standard input and writes a
// JSON array of function descriptors to standard output.
//
// Usage:
//
//	docparse < source.py
//	docparse -pretty < source.py
//
// Each plain def at module or class level yields one descriptor:
//
//	{"name":"add","params":[{"name":"a","type":null}],"returnType":null,
//	 "startIndex":1,"endIndex":2,"body":"def add(a):\n    return a","language":"python"}
//
// Async functions, functions nested inside other functions, and
// *args/**kwargs/keyword-only parameters are skipped. Broken source
// degrades to a partial (possibly empty) array rather than an error;
// diagnostics go to standard error so the output stream stays valid JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/AleutianAI/doceval/services/extractor/ast"
)

func main() {
	pretty := flag.Bool("pretty", false, "Indent the JSON output")
	flag.Parse()

	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}

	extractor := ast.NewPythonExtractor()
	functions, err := extractor.Extract(context.Background(), source)
	if err != nil {
		log.Fatalf("Failed to extract functions: %v", err)
	}

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(functions, "", "  ")
	} else {
		out, err = json.Marshal(functions)
	}
	if err != nil {
		log.Fatalf("Failed to encode descriptors: %v", err)
	}

	fmt.Println(string(out))
}
