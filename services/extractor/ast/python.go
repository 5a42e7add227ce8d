package ast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const (
	// DefaultMaxSourceSize is the maximum source size the extractor will accept (10MB).
	DefaultMaxSourceSize = 10 * 1024 * 1024

	// WarnSourceSize is the threshold at which a warning is logged (1MB).
	WarnSourceSize = 1 * 1024 * 1024
)

// ErrSourceTooLarge is returned when input exceeds the maximum source size.
var ErrSourceTooLarge = errors.New("source exceeds maximum size limit")

// ErrInvalidSource is returned when input is not valid UTF-8.
var ErrInvalidSource = errors.New("source is not valid UTF-8")

// PythonExtractorOption configures a PythonExtractor instance.
type PythonExtractorOption func(*PythonExtractor)

// WithMaxSourceSize sets the maximum source size the extractor will accept.
//
// Parameters:
//   - bytes: Maximum source size in bytes. Must be positive.
//
// Example:
//
//	ex := NewPythonExtractor(WithMaxSourceSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxSourceSize(bytes int64) PythonExtractorOption {
	return func(e *PythonExtractor) {
		if bytes > 0 {
			e.maxSourceSize = bytes
		}
	}
}

// PythonExtractor parses Python source and describes its plain functions.
//
// # Description
//
// PythonExtractor uses tree-sitter to parse Python source and emit one
// FunctionDescriptor per plain def at module or class level. It never
// fails on ambiguous or broken syntax: tree-sitter produces a partial
// tree and extraction degrades to whatever functions remain visible,
// possibly with empty parameter lists.
//
// # Thread Safety
//
// PythonExtractor instances are safe for concurrent use. Each Extract
// call creates its own tree-sitter parser instance internally.
type PythonExtractor struct {
	maxSourceSize int64
}

// NewPythonExtractor creates a new PythonExtractor with the given options.
//
// Example:
//
//	// Default configuration
//	ex := NewPythonExtractor()
//
//	// Custom max source size
//	ex := NewPythonExtractor(WithMaxSourceSize(5 * 1024 * 1024))
func NewPythonExtractor(opts ...PythonExtractorOption) *PythonExtractor {
	e := &PythonExtractor{
		maxSourceSize: DefaultMaxSourceSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract parses Python source and returns its function descriptors.
//
// # Description
//
// Extract walks the parse tree and collects every plain function
// definition at module or class level, in source order. Async functions
// and functions nested inside other functions are skipped. Decorated
// functions are reported from their def line. Syntax errors are not
// fatal; the result may be partial or empty but the slice is never nil.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//     Tree-sitter parsing itself cannot be interrupted mid-parse.
//   - source: Raw Python source bytes. Must be valid UTF-8.
//
// Outputs:
//   - []FunctionDescriptor: Descriptors in source order. Never nil on success.
//   - error: Non-nil for complete failures:
//   - ErrSourceTooLarge: Source exceeds maxSourceSize
//   - ErrInvalidSource: Source is not valid UTF-8
//   - Context errors: Context was canceled or timed out
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (e *PythonExtractor) Extract(ctx context.Context, source []byte) ([]FunctionDescriptor, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract canceled before start: %w", err)
	}

	// Validate source size
	if int64(len(source)) > e.maxSourceSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrSourceTooLarge, len(source), e.maxSourceSize)
	}

	// Log warning for large sources
	if len(source) > WarnSourceSize {
		slog.Warn("parsing large source",
			slog.Int("size_bytes", len(source)))
	}

	// Validate UTF-8
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidSource)
	}

	// Create tree-sitter parser (new instance per call for thread safety)
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	// Check context after parsing
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract canceled after tree-sitter: %w", err)
	}

	functions := make([]FunctionDescriptor, 0)

	rootNode := tree.RootNode()
	if rootNode == nil {
		return functions, nil
	}

	// Syntax errors are non-fatal: the partial tree still yields whatever
	// functions tree-sitter recovered.
	if rootNode.HasError() {
		slog.Debug("source contains syntax errors, extracting best-effort")
	}

	e.collectFunctions(rootNode, source, &functions)

	return functions, nil
}

// Language returns the canonical language name for this extractor.
//
// Returns:
//   - "python" for Python source
func (e *PythonExtractor) Language() string {
	return "python"
}

// collectFunctions walks the tree and appends a descriptor for every plain
// function definition. Traversal descends through classes and compound
// statements but never into a function body, so defs nested inside
// functions stay out of the stream.
func (e *PythonExtractor) collectFunctions(node *sitter.Node, source []byte, out *[]FunctionDescriptor) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_definition":
			if fn, ok := e.describeFunction(child, source); ok {
				*out = append(*out, fn)
			}
		case "decorated_definition":
			e.collectDecorated(child, source, out)
		default:
			e.collectFunctions(child, source, out)
		}
	}
}

// collectDecorated unwraps a decorated definition. The descriptor comes
// from the inner function_definition node, so decorated functions report
// their def line and the decorator lines sit outside the body span.
func (e *PythonExtractor) collectDecorated(node *sitter.Node, source []byte, out *[]FunctionDescriptor) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_definition":
			if fn, ok := e.describeFunction(child, source); ok {
				*out = append(*out, fn)
			}
		case "class_definition":
			e.collectFunctions(child, source, out)
		}
	}
}

// describeFunction builds a descriptor from a function_definition node.
// Async definitions and definitions the parse left without a name report
// ok false.
func (e *PythonExtractor) describeFunction(node *sitter.Node, source []byte) (FunctionDescriptor, bool) {
	fn := FunctionDescriptor{
		Params:   make([]Param, 0),
		Language: "python",
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "async":
			// async keyword is a child of function_definition in tree-sitter-python
			return FunctionDescriptor{}, false
		case "identifier":
			if fn.Name == "" {
				fn.Name = string(source[child.StartByte():child.EndByte()])
			}
		case "parameters":
			fn.Params = e.extractParameters(child, source)
		case "type":
			returnType := string(source[child.StartByte():child.EndByte()])
			fn.ReturnType = &returnType
		}
	}

	if fn.Name == "" {
		return FunctionDescriptor{}, false
	}

	fn.StartIndex = int(node.StartPoint().Row + 1)
	fn.EndIndex = int(node.EndPoint().Row + 1)
	fn.Body = strings.TrimSpace(string(source[node.StartByte():node.EndByte()]))

	return fn, true
}

// extractParameters reads the plain positional parameters out of a
// parameters node. *args, **kwargs, and everything after a keyword-only
// marker are excluded; parameters before a bare "/" are positional-only
// and are dropped as well. Exotic parameter shapes degrade to omission,
// never to an error.
func (e *PythonExtractor) extractParameters(node *sitter.Node, source []byte) []Param {
	params := make([]Param, 0)
	keywordOnly := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if !keywordOnly {
				params = append(params, Param{
					Name: string(source[child.StartByte():child.EndByte()]),
				})
			}
		case "typed_parameter":
			// A typed splat (*args: int) wraps its pattern one level down
			// and still starts the keyword-only section.
			if wrapsSplat(child) {
				keywordOnly = true
			} else if !keywordOnly {
				if p, ok := parseParameter(child, source); ok {
					params = append(params, p)
				}
			}
		case "default_parameter", "typed_default_parameter":
			if !keywordOnly {
				if p, ok := parseParameter(child, source); ok {
					params = append(params, p)
				}
			}
		case "positional_separator":
			// Parameters before "/" are positional-only and stay out of the list
			params = params[:0]
		case "list_splat_pattern", "keyword_separator":
			// *args or a bare "*": everything after is keyword-only
			keywordOnly = true
		case "dictionary_splat_pattern":
			// **kwargs is never a plain parameter
		}
	}

	return params
}

// parseParameter reads the name and optional annotation out of a typed,
// default, or typed-default parameter node. The name is the first
// identifier child; a default value that is itself an identifier comes
// later and cannot be mistaken for it.
func parseParameter(node *sitter.Node, source []byte) (Param, bool) {
	var p Param

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if p.Name == "" {
				p.Name = string(source[child.StartByte():child.EndByte()])
			}
		case "type":
			if p.Type == nil {
				annotation := string(source[child.StartByte():child.EndByte()])
				p.Type = &annotation
			}
		}
	}

	if p.Name == "" {
		// tuple patterns and splats have no single name
		return Param{}, false
	}

	return p, true
}

// wrapsSplat reports whether a typed parameter wraps a splat pattern
// (*args: int, **kwargs: Any) rather than a plain identifier.
func wrapsSplat(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "list_splat_pattern", "dictionary_splat_pattern":
			return true
		}
	}
	return false
}
