package pyextractor

import (
	"testing"

	"psymcp/internal/facts"
)

func extract(t *testing.T, src string) *facts.FileFacts {
	t.Helper()
	ff, err := New().ExtractFile([]byte(src), "test.py")
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if ff == nil {
		t.Fatal("ExtractFile returned nil facts for valid source")
	}
	return ff
}

func TestMatches(t *testing.T) {
	e := New()
	if !e.Matches("pkg/mod.py") {
		t.Error("should match .py files")
	}
	if e.Matches("pkg/mod.ts") || e.Matches("README.md") {
		t.Error("should not match non-Python files")
	}
}

func TestUnparsableFileIsSkipped(t *testing.T) {
	ff, err := New().ExtractFile([]byte("def broken(:\n    ???"), "bad.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ff != nil {
		t.Error("unparsable source should yield nil facts")
	}
}

func TestNamingPatterns(t *testing.T) {
	src := `
MAX_RETRIES = 3
lowercase = 1

def get_user(uid):
    return uid

class RequestHandler:
    def process_request(self, req):
        return req

def configure():
    LOCAL_LIMIT = 10
    return LOCAL_LIMIT
`
	ff := extract(t, src)

	if ff.FunctionCount != 3 {
		t.Errorf("FunctionCount = %d, want 3", ff.FunctionCount)
	}
	if ff.ClassCount != 1 {
		t.Errorf("ClassCount = %d, want 1", ff.ClassCount)
	}

	byName := make(map[string]facts.NamingPattern)
	for _, p := range ff.NamingPatterns {
		byName[p.Name] = p
	}

	if p, ok := byName["get_user"]; !ok || p.Prefix != "get_" || p.Category != facts.CategoryFunction {
		t.Errorf("get_user pattern = %+v", p)
	}
	if p, ok := byName["process_request"]; !ok || p.Prefix != "process_" {
		t.Errorf("process_request pattern = %+v", p)
	}
	if p, ok := byName["RequestHandler"]; !ok || p.Category != facts.CategoryClass {
		t.Errorf("RequestHandler pattern = %+v", p)
	}
	if p, ok := byName["MAX_RETRIES"]; !ok || p.Category != facts.CategoryConstant {
		t.Errorf("MAX_RETRIES pattern = %+v", p)
	}
	if p, ok := byName["LOCAL_LIMIT"]; !ok || p.Category != facts.CategoryConstant {
		t.Errorf("function-scope constant not recorded: %+v", p)
	}
	if _, ok := byName["lowercase"]; ok {
		t.Error("lowercase module assignment must not be recorded as a constant")
	}
}

func TestGuardClauses(t *testing.T) {
	src := `
def fetch(uid):
    if uid is None:
        return None
    if uid < 0:
        raise ValueError("negative id")
    value = lookup(uid)
    if value == 0:
        return None
    return value

def late_guard(x):
    a = 1
    b = 2
    c = 3
    if x is None:
        return None
    return x
`
	ff := extract(t, src)

	if len(ff.GuardClauses) != 2 {
		t.Fatalf("guards = %d, want 2 (third statement window)", len(ff.GuardClauses))
	}
	if ff.GuardClauses[0].Action != facts.GuardReturn {
		t.Errorf("first guard action = %s, want return", ff.GuardClauses[0].Action)
	}
	if ff.GuardClauses[1].Action != facts.GuardRaise {
		t.Errorf("second guard action = %s, want raise", ff.GuardClauses[1].Action)
	}
	if ff.GuardClauses[0].Function != "fetch" {
		t.Errorf("guard function = %q, want fetch", ff.GuardClauses[0].Function)
	}
	if ff.GuardClauses[0].Condition != "uid is None" {
		t.Errorf("guard condition = %q", ff.GuardClauses[0].Condition)
	}
}

func TestGuardRequiresImmediateExit(t *testing.T) {
	src := `
def f(x):
    if x is None:
        log(x)
        return None
    return x
`
	ff := extract(t, src)
	if len(ff.GuardClauses) != 0 {
		t.Errorf("guards = %d; the exit must be the first nested statement", len(ff.GuardClauses))
	}
}

func TestGuardWindowIgnoresComments(t *testing.T) {
	src := `
def fetch(uid):
    # resolve the id
    # before lookup
    # and validate it
    if uid is None:
        return None
    return uid
`
	ff := extract(t, src)
	if len(ff.GuardClauses) != 1 {
		t.Errorf("guards = %d, want 1; comments must not consume the window", len(ff.GuardClauses))
	}
}

func TestErrorHandlerActions(t *testing.T) {
	src := `
def work():
    try:
        a()
    except ValueError:
        pass
    try:
        b()
    except (KeyError, IndexError) as e:
        raise
    try:
        c()
    except Exception as e:
        raise RuntimeError("wrapped") from e
    try:
        d()
    except TypeError:
        logger.error("failed")
    try:
        e2()
    except OSError:
        retry()
    try:
        f()
    except:
        ...
`
	ff := extract(t, src)

	if len(ff.ErrorHandlers) != 6 {
		t.Fatalf("handlers = %d, want 6", len(ff.ErrorHandlers))
	}

	wantActions := []facts.HandlerAction{
		facts.ActionSuppress,
		facts.ActionReraise,
		facts.ActionTransform,
		facts.ActionLog,
		facts.ActionHandle,
		facts.ActionSuppress,
	}
	for i, want := range wantActions {
		if ff.ErrorHandlers[i].Action != want {
			t.Errorf("handler %d action = %s, want %s", i, ff.ErrorHandlers[i].Action, want)
		}
	}

	if got := ff.ErrorHandlers[1].ExceptionTypes; len(got) != 2 || got[0] != "KeyError" || got[1] != "IndexError" {
		t.Errorf("tuple types = %v", got)
	}
	if got := ff.ErrorHandlers[2].ExceptionTypes; len(got) != 1 || got[0] != "Exception" {
		t.Errorf("as-pattern types = %v", got)
	}
	if !ff.ErrorHandlers[2].IsCatchAll() {
		t.Error("except Exception should count as catch-all")
	}
	if got := ff.ErrorHandlers[5].ExceptionTypes; len(got) != 1 || got[0] != facts.CatchAllType {
		t.Errorf("bare except types = %v", got)
	}
	if ff.ErrorHandlers[0].Function != "work" {
		t.Errorf("handler function = %q, want work", ff.ErrorHandlers[0].Function)
	}
}

func TestHandlerActionScansTopLevelInOrder(t *testing.T) {
	src := `
def work():
    try:
        a()
    except ValueError:
        logger.error("failed")
        raise RuntimeError("boom")
    try:
        b()
    except KeyError:
        if retry():
            raise RuntimeError("gave up")
`
	ff := extract(t, src)

	if len(ff.ErrorHandlers) != 2 {
		t.Fatalf("handlers = %d, want 2", len(ff.ErrorHandlers))
	}
	if got := ff.ErrorHandlers[0].Action; got != facts.ActionLog {
		t.Errorf("log call preceding a raise = %s, want log", got)
	}
	if got := ff.ErrorHandlers[1].Action; got != facts.ActionHandle {
		t.Errorf("raise nested under a conditional = %s, want handle", got)
	}
}

func TestDefensivePatterns(t *testing.T) {
	src := `
def check_input(value):
    if value is None:
        return None
    if value is not None:
        use(value)
    if isinstance(value, str):
        return value
    assert value > 0
    if isinstance(value, int, float):
        return value
    flag = value is None
    return value
`
	ff := extract(t, src)

	contexts := make(map[facts.DefenseKind][]string)
	for _, p := range ff.DefensivePatterns {
		contexts[p.Kind] = append(contexts[p.Kind], p.Context)
	}

	if got := contexts[facts.DefenseNullCheck]; len(got) != 2 || got[0] != "value is None" || got[1] != "value is not None" {
		t.Errorf("null checks = %v, want the two identity comparisons under if", got)
	}
	// isinstance with three arguments is not a type check.
	if got := contexts[facts.DefenseTypeCheck]; len(got) != 1 || got[0] != "isinstance(value, str)" {
		t.Errorf("type checks = %v, want the two-argument isinstance call", got)
	}
	if got := contexts[facts.DefenseAssertion]; len(got) != 1 || got[0] != "value > 0" {
		t.Errorf("assertions = %v, want the asserted expression", got)
	}
}

func TestNullCheckRequiresIdentityComparison(t *testing.T) {
	src := `
def f(x):
    if x == None:
        return None
    if x != None:
        return x
    return x
`
	ff := extract(t, src)
	for _, p := range ff.DefensivePatterns {
		if p.Kind == facts.DefenseNullCheck {
			t.Fatalf("equality comparison recorded as null check: %+v", p)
		}
	}
}

func TestNestingDepths(t *testing.T) {
	src := `
def flat():
    return 1

def one_if(x):
    if x:
        return 1
    return 0

def deep(xs):
    for x in xs:
        if x:
            while x:
                x -= 1
    return xs
`
	ff := extract(t, src)

	if len(ff.NestingDepths) != 3 {
		t.Fatalf("depths recorded = %d, want 3", len(ff.NestingDepths))
	}
	if ff.NestingDepths[0] != 0 {
		t.Errorf("flat depth = %d, want 0 (no nested constructs)", ff.NestingDepths[0])
	}
	if ff.NestingDepths[1] != 2 {
		t.Errorf("single-if depth = %d, want 2", ff.NestingDepths[1])
	}
	if ff.NestingDepths[2] != 4 {
		t.Errorf("for/if/while depth = %d, want 4", ff.NestingDepths[2])
	}
}

func TestSignatures(t *testing.T) {
	src := `
def pair(a, b):
    if a:
        return a
    return b
`
	ff := extract(t, src)

	if len(ff.Signatures) != 1 {
		t.Fatalf("signatures = %d, want 1", len(ff.Signatures))
	}
	want := "args:2|body:if-return|ret:true"
	if ff.Signatures[0] != want {
		t.Errorf("signature = %q, want %q", ff.Signatures[0], want)
	}
}

func TestSignatureDecorators(t *testing.T) {
	src := `
def plain(a, b):
    x = a
    return x

@cached
def wrapped(a, b):
    x = a
    return x
`
	ff := extract(t, src)

	if len(ff.Signatures) != 2 {
		t.Fatalf("signatures = %d, want 2", len(ff.Signatures))
	}
	if ff.Signatures[0] == ff.Signatures[1] {
		t.Error("decorated function must not share a signature with its plain twin")
	}
	want := "args:2|deco:1|body:assign-return|ret:true"
	if ff.Signatures[1] != want {
		t.Errorf("decorated signature = %q, want %q", ff.Signatures[1], want)
	}
}

func TestSignatureBodyCap(t *testing.T) {
	src := `
def first(a):
    b = 1
    c = 2
    d = 3
    e = 4
    f = 5
    g = a + 1
    return g

def second(a):
    b = 1
    c = 2
    d = 3
    e = 4
    f = 5
    if a:
        pass
    return a
`
	ff := extract(t, src)

	if len(ff.Signatures) != 2 || ff.Signatures[0] != ff.Signatures[1] {
		t.Errorf("bodies identical through the first five statements must share a signature: %v", ff.Signatures)
	}
}

func TestIdenticalShapesShareSignature(t *testing.T) {
	src := `
def first(a):
    if a:
        return a
    return None

def second(b):
    if b:
        return b
    return None
`
	ff := extract(t, src)

	if len(ff.Signatures) != 2 || ff.Signatures[0] != ff.Signatures[1] {
		t.Errorf("structurally identical functions should share a signature: %v", ff.Signatures)
	}
}
