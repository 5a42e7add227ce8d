// Package ast extracts function descriptors from Python source using
// tree-sitter. Each plain def becomes one descriptor carrying its name,
// positional parameters, return annotation, 1-based line span, and body
// text. The scoring pipeline consumes the descriptor's body as its
// source_code field; the two tools share only this JSON shape.
package ast

// Param is a single named parameter in a function signature. Type holds
// the annotation text when one is present and serializes as null
// otherwise.
type Param struct {
	Name string  `json:"name"`
	Type *string `json:"type"`
}

// FunctionDescriptor describes one plain Python function definition.
//
// # Description
//
// A descriptor carries everything a downstream consumer needs to reason
// about a function without re-parsing source: the name, the ordered
// positional parameters, the return annotation when present, the
// 1-based line span, and the trimmed source text from the def line
// through the end of the body. Async functions, functions nested inside
// other functions, and *args/**kwargs/keyword-only parameters are not
// part of the stream. Decorated functions are reported from their def
// line; decorator lines sit outside the span.
type FunctionDescriptor struct {
	Name       string  `json:"name"`
	Params     []Param `json:"params"`
	ReturnType *string `json:"returnType"`
	StartIndex int     `json:"startIndex"`
	EndIndex   int     `json:"endIndex"`
	Body       string  `json:"body"`
	Language   string  `json:"language"`
}
