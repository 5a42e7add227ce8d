package ast

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

// Test source code samples (embedded, no file I/O).
const (
	testPyEmpty = ``

	testPySimple = `def add(a, b):
    return a + b
`

	testPyTyped = `def connect(host: str, port: int = 5432, timeout=30) -> Connection:
    return Connection(host, port, timeout)
`

	testPyOneLiner = `def f(a: int, b: str) -> bool: return a`

	testPyClass = `class Greeter:
    def __init__(self, name):
        self.name = name

    def greet(self, loud=False):
        return "hi " + self.name
`

	testPyModule = `def first():
    return 1


def second():
    return 2


class Holder:
    def third(self):
        return 3
`

	testPyAsync = `async def fetch(url):
    return await get(url)

def sync_helper():
    return 1
`

	testPyNested = `def outer(a):
    def inner(b):
        return b
    return inner(a)
`

	testPyDecorated = `@cached
@validated
def lookup(key):
    return table[key]
`

	testPyConditional = `if PY3:
    def decode(b):
        return b.decode()
`

	testPySplats = `def call(fn, *args, retries, **kwargs):
    return fn(*args, **kwargs)
`

	testPySeparators = `def clamp(lo, hi, /, value, *, strict=False):
    return value
`

	testPyBroken = `def valid():
    return "ok"

def broken(
`

	// Invalid UTF-8 bytes
	testInvalidUTF8 = "\xff\xfe"
)

func extractAll(t *testing.T, source string) []FunctionDescriptor {
	t.Helper()

	ex := NewPythonExtractor()
	fns, err := ex.Extract(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fns == nil {
		t.Fatal("expected non-nil descriptor slice")
	}
	return fns
}

func TestPythonExtractor_Extract_EmptySource(t *testing.T) {
	fns := extractAll(t, testPyEmpty)

	if len(fns) != 0 {
		t.Errorf("expected 0 descriptors for empty source, got %d", len(fns))
	}
}

func TestPythonExtractor_Extract_SimpleFunction(t *testing.T) {
	fns := extractAll(t, testPySimple)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	fn := fns[0]
	if fn.Name != "add" {
		t.Errorf("expected name 'add', got %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Errorf("expected params [a b], got [%s %s]", fn.Params[0].Name, fn.Params[1].Name)
	}
	if fn.Params[0].Type != nil {
		t.Errorf("expected nil type for untyped param, got %q", *fn.Params[0].Type)
	}
	if fn.ReturnType != nil {
		t.Errorf("expected nil return type, got %q", *fn.ReturnType)
	}
	if fn.StartIndex != 1 || fn.EndIndex != 2 {
		t.Errorf("expected span 1-2, got %d-%d", fn.StartIndex, fn.EndIndex)
	}
	if fn.Body != "def add(a, b):\n    return a + b" {
		t.Errorf("unexpected body: %q", fn.Body)
	}
	if fn.Language != "python" {
		t.Errorf("expected language 'python', got %q", fn.Language)
	}
}

func TestPythonExtractor_Extract_TypedSignature(t *testing.T) {
	fns := extractAll(t, testPyTyped)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	fn := fns[0]
	if len(fn.Params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(fn.Params))
	}
	if fn.Params[0].Name != "host" || fn.Params[0].Type == nil || *fn.Params[0].Type != "str" {
		t.Errorf("expected host: str, got %+v", fn.Params[0])
	}
	if fn.Params[1].Name != "port" || fn.Params[1].Type == nil || *fn.Params[1].Type != "int" {
		t.Errorf("expected port: int, got %+v", fn.Params[1])
	}
	if fn.Params[2].Name != "timeout" || fn.Params[2].Type != nil {
		t.Errorf("expected untyped timeout, got %+v", fn.Params[2])
	}
	if fn.ReturnType == nil || *fn.ReturnType != "Connection" {
		t.Errorf("expected return type 'Connection', got %v", fn.ReturnType)
	}
}

func TestPythonExtractor_Extract_OneLiner(t *testing.T) {
	fns := extractAll(t, testPyOneLiner)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	fn := fns[0]
	if fn.Name != "f" {
		t.Errorf("expected name 'f', got %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if fn.Params[0].Name != "a" || fn.Params[0].Type == nil || *fn.Params[0].Type != "int" {
		t.Errorf("expected a: int, got %+v", fn.Params[0])
	}
	if fn.Params[1].Name != "b" || fn.Params[1].Type == nil || *fn.Params[1].Type != "str" {
		t.Errorf("expected b: str, got %+v", fn.Params[1])
	}
	if fn.ReturnType == nil || *fn.ReturnType != "bool" {
		t.Errorf("expected return type 'bool', got %v", fn.ReturnType)
	}
	if fn.StartIndex != 1 || fn.EndIndex != 1 {
		t.Errorf("expected span 1-1, got %d-%d", fn.StartIndex, fn.EndIndex)
	}
	if fn.Body != testPyOneLiner {
		t.Errorf("unexpected body: %q", fn.Body)
	}
}

func TestPythonExtractor_Extract_ClassMethods(t *testing.T) {
	fns := extractAll(t, testPyClass)

	if len(fns) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(fns))
	}

	ctor := fns[0]
	if ctor.Name != "__init__" {
		t.Errorf("expected name '__init__', got %q", ctor.Name)
	}
	if len(ctor.Params) != 2 || ctor.Params[0].Name != "self" || ctor.Params[1].Name != "name" {
		t.Errorf("expected params [self name], got %+v", ctor.Params)
	}
	if ctor.StartIndex != 2 || ctor.EndIndex != 3 {
		t.Errorf("expected span 2-3, got %d-%d", ctor.StartIndex, ctor.EndIndex)
	}

	greet := fns[1]
	if greet.Name != "greet" {
		t.Errorf("expected name 'greet', got %q", greet.Name)
	}
	if len(greet.Params) != 2 || greet.Params[0].Name != "self" || greet.Params[1].Name != "loud" {
		t.Errorf("expected params [self loud], got %+v", greet.Params)
	}
	if !strings.HasPrefix(greet.Body, "def greet") {
		t.Errorf("expected body to start at def, got %q", greet.Body)
	}
	if !strings.Contains(greet.Body, "return") {
		t.Errorf("expected body to span the method, got %q", greet.Body)
	}
}

func TestPythonExtractor_Extract_SourceOrder(t *testing.T) {
	fns := extractAll(t, testPyModule)

	if len(fns) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(fns))
	}

	wantNames := []string{"first", "second", "third"}
	wantStarts := []int{1, 5, 10}
	for i, fn := range fns {
		if fn.Name != wantNames[i] {
			t.Errorf("descriptor %d: expected name %q, got %q", i, wantNames[i], fn.Name)
		}
		if fn.StartIndex != wantStarts[i] {
			t.Errorf("descriptor %d: expected startIndex %d, got %d", i, wantStarts[i], fn.StartIndex)
		}
	}
}

func TestPythonExtractor_Extract_SkipsAsync(t *testing.T) {
	fns := extractAll(t, testPyAsync)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}
	if fns[0].Name != "sync_helper" {
		t.Errorf("expected only 'sync_helper', got %q", fns[0].Name)
	}
}

func TestPythonExtractor_Extract_SkipsNested(t *testing.T) {
	fns := extractAll(t, testPyNested)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	fn := fns[0]
	if fn.Name != "outer" {
		t.Errorf("expected only 'outer', got %q", fn.Name)
	}
	if fn.EndIndex != 4 {
		t.Errorf("expected outer to span through line 4, got %d", fn.EndIndex)
	}
}

func TestPythonExtractor_Extract_DecoratedFromDefLine(t *testing.T) {
	fns := extractAll(t, testPyDecorated)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	fn := fns[0]
	if fn.Name != "lookup" {
		t.Errorf("expected name 'lookup', got %q", fn.Name)
	}
	if fn.StartIndex != 3 {
		t.Errorf("expected startIndex 3 (the def line), got %d", fn.StartIndex)
	}
	if !strings.HasPrefix(fn.Body, "def lookup") {
		t.Errorf("expected body to exclude decorators, got %q", fn.Body)
	}
}

func TestPythonExtractor_Extract_ConditionalDef(t *testing.T) {
	fns := extractAll(t, testPyConditional)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}
	if fns[0].Name != "decode" {
		t.Errorf("expected 'decode', got %q", fns[0].Name)
	}
	if fns[0].StartIndex != 2 {
		t.Errorf("expected startIndex 2, got %d", fns[0].StartIndex)
	}
}

func TestPythonExtractor_Extract_ExcludesSplats(t *testing.T) {
	fns := extractAll(t, testPySplats)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	fn := fns[0]
	// retries follows *args, so it is keyword-only
	if len(fn.Params) != 1 {
		t.Fatalf("expected 1 param, got %+v", fn.Params)
	}
	if fn.Params[0].Name != "fn" {
		t.Errorf("expected param 'fn', got %q", fn.Params[0].Name)
	}
}

func TestPythonExtractor_Extract_ExcludesSeparatedParams(t *testing.T) {
	fns := extractAll(t, testPySeparators)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	fn := fns[0]
	// lo and hi precede "/", strict follows "*"
	if len(fn.Params) != 1 {
		t.Fatalf("expected 1 param, got %+v", fn.Params)
	}
	if fn.Params[0].Name != "value" {
		t.Errorf("expected param 'value', got %q", fn.Params[0].Name)
	}
}

func TestPythonExtractor_Extract_SyntaxErrorBestEffort(t *testing.T) {
	fns := extractAll(t, testPyBroken)

	if len(fns) == 0 {
		t.Fatal("expected the intact function to survive a broken neighbor")
	}
	if fns[0].Name != "valid" {
		t.Errorf("expected 'valid', got %q", fns[0].Name)
	}
}

func TestPythonExtractor_Extract_JSONShape(t *testing.T) {
	fns := extractAll(t, testPySimple)

	if len(fns) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(fns))
	}

	data, err := json.Marshal(fns)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	s := string(data)
	for _, want := range []string{
		`"name":"add"`,
		`"type":null`,
		`"returnType":null`,
		`"startIndex":1`,
		`"endIndex":2`,
		`"language":"python"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected JSON to contain %s, got %s", want, s)
		}
	}
}

func TestPythonExtractor_Extract_ContextCancellation(t *testing.T) {
	ex := NewPythonExtractor()

	// Create already-canceled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.Extract(ctx, []byte(testPySimple))

	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !strings.Contains(err.Error(), "canceled") {
		t.Errorf("expected 'canceled' in error, got: %v", err)
	}
}

func TestPythonExtractor_Extract_SourceTooLarge(t *testing.T) {
	// Create extractor with small max size
	ex := NewPythonExtractor(WithMaxSourceSize(10))
	ctx := context.Background()

	_, err := ex.Extract(ctx, []byte(testPyClass))

	if err == nil {
		t.Fatal("expected error for oversized source")
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected 'exceeds' in error, got: %v", err)
	}
}

func TestPythonExtractor_Extract_InvalidUTF8(t *testing.T) {
	ex := NewPythonExtractor()
	ctx := context.Background()

	_, err := ex.Extract(ctx, []byte(testInvalidUTF8))

	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	if !strings.Contains(err.Error(), "UTF-8") {
		t.Errorf("expected 'UTF-8' in error, got: %v", err)
	}
}

func TestPythonExtractor_Extract_Concurrent(t *testing.T) {
	ex := NewPythonExtractor()
	ctx := context.Background()

	sources := []string{
		testPySimple,
		testPyTyped,
		testPyClass,
		testPyModule,
		testPyDecorated,
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(sources)*10)

	// Run 10 iterations of each source concurrently
	for i := 0; i < 10; i++ {
		for _, src := range sources {
			wg.Add(1)
			go func(source string) {
				defer wg.Done()

				fns, err := ex.Extract(ctx, []byte(source))
				if err != nil {
					errs <- err
					return
				}
				if len(fns) == 0 {
					errs <- context.DeadlineExceeded // dummy error
				}
			}(src)
		}
	}

	wg.Wait()
	close(errs)

	var failures []error
	for err := range errs {
		failures = append(failures, err)
	}

	if len(failures) > 0 {
		t.Errorf("concurrent extraction had %d errors: %v", len(failures), failures)
	}
}

func TestPythonExtractor_Language(t *testing.T) {
	ex := NewPythonExtractor()

	if ex.Language() != "python" {
		t.Errorf("expected 'python', got %q", ex.Language())
	}
}
