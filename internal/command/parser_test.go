package command

import (
	"strconv"
	"testing"
)

func TestParseConsole(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"b", Command{Kind: KindListBreakpoints}},
		{"break", Command{Kind: KindListBreakpoints}},
		{"b main.rb:10", Command{Kind: KindAddBreakpoint, File: "main.rb", Line: 10}},
		{"break 10", Command{Kind: KindAddBreakpoint, Line: 10}},
		{"del 2", Command{Kind: KindDeleteBreakpoint, Index: 2}},
		{"delete 2", Command{Kind: KindDeleteBreakpoint, Index: 2}},
		{"c", Command{Kind: KindContinue}},
		{"cont", Command{Kind: KindContinue}},
		{"s", Command{Kind: KindStep}},
		{"step", Command{Kind: KindStep}},
		{"s o", Command{Kind: KindStepOut}},
		{"step out", Command{Kind: KindStepOut}},
		{"n", Command{Kind: KindStepOver}},
		{"next", Command{Kind: KindStepOver}},
		{"up", Command{Kind: KindFrameUp}},
		{"down", Command{Kind: KindFrameDown}},
		{"w", Command{Kind: KindWhere}},
		{"where", Command{Kind: KindWhere}},
		{"f", Command{Kind: KindWhere}},
		{"frame", Command{Kind: KindWhere}},
		{"l", Command{Kind: KindListSource}},
		{"list", Command{Kind: KindListSource}},
		{"v g", Command{Kind: KindVars, Scope: ScopeGlobal}},
		{"var global", Command{Kind: KindVars, Scope: ScopeGlobal}},
		{"v l", Command{Kind: KindVars, Scope: ScopeLocal}},
		{"var local", Command{Kind: KindVars, Scope: ScopeLocal}},
		{"v i 1a", Command{Kind: KindVars, Scope: ScopeInstance, ObjectID: 0x1a}},
		{"p 1 + 1", Command{Kind: KindEval, Expression: "1 + 1"}},
		{"h", Command{Kind: KindHelp}},
		{"help", Command{Kind: KindHelp}},
		{"", Command{Kind: KindUnknown}},
		{"self.x", Command{Kind: KindEval, Expression: "self.x"}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got := ParseConsole(c.in)
			got.Raw = ""
			if got != c.want {
				t.Errorf("ParseConsole(%q) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}

func TestParseConsoleMalformedNumericIsIllegal(t *testing.T) {
	// spec.md §4.2: non-numeric arguments to del must be rejected,
	// not fall through to the eval catchall. SPEC_FULL.md §4.2 extends the
	// same rejection to a bare del/delete with no argument at all.
	cases := []string{"del abc", "delete x", "del", "delete"}
	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			got := ParseConsole(in)
			if got.Kind != KindUnknown {
				t.Errorf("ParseConsole(%q).Kind = %v, want KindUnknown", in, got.Kind)
			}
		})
	}
}

func TestParseWire(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"b", Command{Kind: KindListBreakpoints}},
		{"b main.rb:10", Command{Kind: KindAddBreakpoint, File: "main.rb", Line: 10}},
		{"del 2", Command{Kind: KindDeleteBreakpoint, Index: 2}},
		{"start", Command{Kind: KindStart}},
		{"exit", Command{Kind: KindExit}},
		{"c", Command{Kind: KindContinue}},
		{"finish", Command{Kind: KindStepOut}},
		{"s", Command{Kind: KindStep}},
		{"n", Command{Kind: KindStepOver}},
		{"w", Command{Kind: KindWhere}},
		{"f 2", Command{Kind: KindFrame, Index: 2}},
		{"th l", Command{Kind: KindThreadList}},
		{"thread list", Command{Kind: KindThreadList}},
		{"v g", Command{Kind: KindVars, Scope: ScopeGlobal}},
		{"v l", Command{Kind: KindVars, Scope: ScopeLocal}},
		{"v i 2a", Command{Kind: KindVars, Scope: ScopeInstance, ObjectID: 0x2a}},
		{"v inspect self.x", Command{Kind: KindEval, Expression: "self.x"}},
		{"", Command{Kind: KindUnknown}},
		{"bogus", Command{Kind: KindUnknown}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got := ParseWire(c.in)
			got.Raw = ""
			if got != c.want {
				t.Errorf("ParseWire(%q) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}

func TestParseWireNoEvalFallthrough(t *testing.T) {
	// Unlike the console, the wire grammar never treats an unmatched line
	// as an expression to evaluate.
	got := ParseWire("self.x")
	if got.Kind != KindUnknown {
		t.Errorf("ParseWire(%q).Kind = %v, want KindUnknown", "self.x", got.Kind)
	}
}

func TestParseWireMalformedFrameIsUnknown(t *testing.T) {
	got := ParseWire("f abc")
	if got.Kind != KindUnknown {
		t.Errorf("ParseWire(%q).Kind = %v, want KindUnknown", "f abc", got.Kind)
	}
}

func TestParseWireBareDeleteIsUnknown(t *testing.T) {
	cases := []string{"del", "delete"}
	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			got := ParseWire(in)
			if got.Kind != KindUnknown {
				t.Errorf("ParseWire(%q).Kind = %v, want KindUnknown", in, got.Kind)
			}
		})
	}
}

func TestCommandIsInterpreterRouted(t *testing.T) {
	for _, k := range []Kind{KindVars, KindEval} {
		k := k
		t.Run(strconv.Itoa(int(k)), func(t *testing.T) {
			if !(Command{Kind: k}).IsInterpreterRouted() {
				t.Errorf("Kind %v should be interpreter-routed", k)
			}
		})
	}
	if (Command{Kind: KindContinue}).IsInterpreterRouted() {
		t.Error("Continue should not be interpreter-routed")
	}
}

func TestCommandIsResumption(t *testing.T) {
	for _, k := range []Kind{KindContinue, KindStep, KindStepOut, KindStepOver, KindStart} {
		k := k
		t.Run(strconv.Itoa(int(k)), func(t *testing.T) {
			if !(Command{Kind: k}).IsResumption() {
				t.Errorf("Kind %v should be a resumption", k)
			}
		})
	}
	if (Command{Kind: KindWhere}).IsResumption() {
		t.Error("Where should not be a resumption")
	}
}
