package search

import (
	"database/sql"
	"strings"
	"testing"
)

func namedArgs(t *testing.T, pred Predicate) map[string]any {
	t.Helper()
	args := make(map[string]any, len(pred.Args))
	for _, arg := range pred.Args {
		named, ok := arg.(sql.NamedArg)
		if !ok {
			t.Fatalf("argument %v is not a named parameter", arg)
		}
		if _, dup := args[named.Name]; dup {
			t.Fatalf("parameter %q bound twice", named.Name)
		}
		args[named.Name] = named.Value
	}
	return args
}

// Every parameter referenced in the SQL must have exactly one binding, and
// every binding must be referenced at least once.
func checkBindings(t *testing.T, pred Predicate) {
	t.Helper()
	for name := range namedArgs(t, pred) {
		if !strings.Contains(pred.SQL, ":"+name) {
			t.Errorf("bound parameter %q never referenced in %q", name, pred.SQL)
		}
	}
}

func TestCompileFieldSingleTerm(t *testing.T) {
	pred := CompileField(Parse("hello"), "full_text")

	want := "(full_text LIKE :full_text_q_0)"
	if pred.SQL != "("+want+")" {
		t.Errorf("SQL = %q, want %q", pred.SQL, "("+want+")")
	}
	args := namedArgs(t, pred)
	if args["full_text_q_0"] != "%hello%" {
		t.Errorf("value = %v, want %%hello%%", args["full_text_q_0"])
	}
	checkBindings(t, pred)
}

func TestCompileFieldOrOfAnds(t *testing.T) {
	pred := CompileField(Parse("a b OR c"), "url")

	// Two AND-groups: (a AND b) OR (c); never a flat disjunction of terms.
	wantSQL := "((url LIKE :url_q_0) AND (url LIKE :url_q_1)) OR ((url LIKE :url_q_3))"
	if pred.SQL != wantSQL {
		t.Errorf("SQL = %q, want %q", pred.SQL, wantSQL)
	}
	checkBindings(t, pred)
}

func TestCompileFieldNegation(t *testing.T) {
	pred := CompileField(Parse("NOT a b"), "full_text")

	// NOT binds to the next condition only: (NOT a) AND b.
	wantSQL := "(NOT (full_text LIKE :full_text_q_1) AND (full_text LIKE :full_text_q_2))"
	if pred.SQL != wantSQL {
		t.Errorf("SQL = %q, want %q", pred.SQL, wantSQL)
	}
}

func TestCompileFieldNoText(t *testing.T) {
	pred := CompileField(Parse("NOTEXT"), "full_text")

	wantSQL := "((full_text IS NULL OR full_text = ''))"
	if pred.SQL != wantSQL {
		t.Errorf("SQL = %q, want %q", pred.SQL, wantSQL)
	}
	if len(pred.Args) != 0 {
		t.Errorf("NOTEXT must not bind a parameter, got %v", pred.Args)
	}
}

func TestCompileFieldNegatedNoText(t *testing.T) {
	pred := CompileField(Parse("NOT NOTEXT"), "full_text")

	wantSQL := "(NOT (full_text IS NULL OR full_text = ''))"
	if pred.SQL != wantSQL {
		t.Errorf("SQL = %q, want %q", pred.SQL, wantSQL)
	}
}

func TestCompileFieldEscapedWildcards(t *testing.T) {
	pred := CompileField(Parse("50ESC%"), "full_text")

	if !strings.Contains(pred.SQL, `ESCAPE '\'`) {
		t.Errorf("expected ESCAPE clause in %q", pred.SQL)
	}
	args := namedArgs(t, pred)
	// Escaped terms are literal comparisons, not wildcard-wrapped.
	if args["full_text_q_0"] != `50\%` {
		t.Errorf("value = %v, want 50\\%%", args["full_text_q_0"])
	}

	pred = CompileField(Parse("a_bESC_"), "url")
	args = namedArgs(t, pred)
	if args["url_q_0"] != `a_b\_` {
		t.Errorf("value = %v, want a_b\\_", args["url_q_0"])
	}
}

func TestCompileFieldQuotedPhrase(t *testing.T) {
	pred := CompileField(Parse(`"Full text"`), "full_text")

	args := namedArgs(t, pred)
	// Quoted phrases normalize to substring matching with the phrase
	// boundaries preserved.
	if args["full_text_q_0"] != "%Full text%" {
		t.Errorf("value = %v, want %%Full text%%", args["full_text_q_0"])
	}
}

func TestCompileEmptyExpressionIsTautology(t *testing.T) {
	pred := CompileField(Parse(""), "full_text")
	if pred.SQL != "1=1" || len(pred.Args) != 0 {
		t.Errorf("empty expression compiled to %q with %d args, want tautology", pred.SQL, len(pred.Args))
	}
}

func TestCompileGeneralDistributesAcrossColumns(t *testing.T) {
	pred := CompileGeneral(Parse("news"))

	for _, col := range []string{"full_text", "url", "CAST(time AS TEXT)"} {
		if !strings.Contains(pred.SQL, col+" LIKE :q_0") {
			t.Errorf("expected %s comparison in %q", col, pred.SQL)
		}
	}
	// One shared binding for the three comparisons.
	args := namedArgs(t, pred)
	if len(args) != 1 {
		t.Errorf("expected a single shared parameter, got %v", args)
	}
	checkBindings(t, pred)
}

func TestCompileGeneralNoText(t *testing.T) {
	pred := CompileGeneral(Parse("NOTEXT"))

	if !strings.Contains(pred.SQL, "full_text IS NULL OR full_text = ''") ||
		!strings.Contains(pred.SQL, "url IS NULL OR url = ''") {
		t.Errorf("general NOTEXT should check text and url emptiness, got %q", pred.SQL)
	}
	if len(pred.Args) != 0 {
		t.Errorf("NOTEXT must not bind a parameter, got %v", pred.Args)
	}
}

func TestCompileParameterNamesUniqueAcrossFields(t *testing.T) {
	text := CompileField(Parse("a"), "full_text")
	url := CompileField(Parse("a"), "url")

	textArgs := namedArgs(t, text)
	urlArgs := namedArgs(t, url)
	for name := range textArgs {
		if _, clash := urlArgs[name]; clash {
			t.Errorf("parameter %q collides across fields", name)
		}
	}
}
