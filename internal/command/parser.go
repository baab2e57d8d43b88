package command

import (
	"regexp"
	"strconv"
	"strings"
)

// rule is one (pattern, builder) entry in an ordered grammar: first match
// wins (spec.md §9, "Parser grammar").
type rule struct {
	re    *regexp.Regexp
	build func(m []string) (Command, bool)
}

var (
	reListBreakpoints  = regexp.MustCompile(`^b(?:reak)?$`)
	reAddBreakpoint    = regexp.MustCompile(`^b(?:reak)?\s+(?:(.+):)?([^.:]+)$`)
	reDeleteBreakpoint = regexp.MustCompile(`^del(?:ete)?(?:\s+(\S+))?$`)
	reContinue         = regexp.MustCompile(`^c(?:ont)?$`)
	reStepOutConsole   = regexp.MustCompile(`^s(?:tep)?\s+o(?:ut)?$`)
	reStep             = regexp.MustCompile(`^s(?:tep)?$`)
	reStepOver         = regexp.MustCompile(`^n(?:ext)?$`)
	reWhereOrFrame     = regexp.MustCompile(`^(?:w(?:here)?|f(?:rame)?)$`)
	reWhere            = regexp.MustCompile(`^w(?:here)?$`)
	reFrameSelect      = regexp.MustCompile(`^f(?:rame)?\s+(\S+)$`)
	reUp               = regexp.MustCompile(`^up$`)
	reDown             = regexp.MustCompile(`^down$`)
	reListSource       = regexp.MustCompile(`^l(?:ist)?$`)
	reVarGlobal        = regexp.MustCompile(`^v(?:ar)?\s+g(?:lobal)?$`)
	reVarLocal         = regexp.MustCompile(`^v(?:ar)?\s+l(?:ocal)?$`)
	reVarInstance      = regexp.MustCompile(`^v(?:ar)?\s+i(?:nstance)?\s+([0-9a-fA-F]+)$`)
	reEvalConsole      = regexp.MustCompile(`^p\s+(.+)$`)
	reEvalWire         = regexp.MustCompile(`^v\s+inspect\s+(.+)$`)
	reThreadList       = regexp.MustCompile(`^th(?:read)?\s+l(?:ist)?$`)
	reStart            = regexp.MustCompile(`^start$`)
	reExit             = regexp.MustCompile(`^exit$`)
	reFinish           = regexp.MustCompile(`^finish$`)
	reHelp             = regexp.MustCompile(`^h(?:elp)?$`)
)

func addBreakpointFrom(m []string) (Command, bool) {
	line, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Command{}, false
	}
	return Command{Kind: KindAddBreakpoint, File: m[1], Line: line}, true
}

func deleteBreakpointFrom(m []string) (Command, bool) {
	// A bare "del"/"delete" matches structurally but carries no index
	// (m[1] == "" since the argument group is optional) — that is a
	// ParseError too, not a valid list/delete-all shorthand.
	if m[1] == "" {
		return Command{}, false
	}
	idx, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Command{}, false
	}
	return Command{Kind: KindDeleteBreakpoint, Index: idx}, true
}

func frameSelectFrom(m []string) (Command, bool) {
	idx, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Command{}, false
	}
	return Command{Kind: KindFrame, Index: idx}, true
}

func varInstanceFrom(m []string) (Command, bool) {
	id, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return Command{}, false
	}
	return Command{Kind: KindVars, Scope: ScopeInstance, ObjectID: id}, true
}

// consoleRules is the grammar the console front-end parses against
// (spec.md §4.2 table, console column), in first-match-wins order.
var consoleRules = []rule{
	{reListBreakpoints, func(m []string) (Command, bool) { return Command{Kind: KindListBreakpoints}, true }},
	{reDeleteBreakpoint, deleteBreakpointFrom},
	{reAddBreakpoint, addBreakpointFrom},
	{reContinue, func(m []string) (Command, bool) { return Command{Kind: KindContinue}, true }},
	{reStepOutConsole, func(m []string) (Command, bool) { return Command{Kind: KindStepOut}, true }},
	{reStep, func(m []string) (Command, bool) { return Command{Kind: KindStep}, true }},
	{reStepOver, func(m []string) (Command, bool) { return Command{Kind: KindStepOver}, true }},
	{reUp, func(m []string) (Command, bool) { return Command{Kind: KindFrameUp}, true }},
	{reDown, func(m []string) (Command, bool) { return Command{Kind: KindFrameDown}, true }},
	{reWhereOrFrame, func(m []string) (Command, bool) { return Command{Kind: KindWhere}, true }},
	{reListSource, func(m []string) (Command, bool) { return Command{Kind: KindListSource}, true }},
	{reVarGlobal, func(m []string) (Command, bool) { return Command{Kind: KindVars, Scope: ScopeGlobal}, true }},
	{reVarLocal, func(m []string) (Command, bool) { return Command{Kind: KindVars, Scope: ScopeLocal}, true }},
	{reVarInstance, varInstanceFrom},
	{reEvalConsole, func(m []string) (Command, bool) { return Command{Kind: KindEval, Expression: m[1]}, true }},
	{reHelp, func(m []string) (Command, bool) { return Command{Kind: KindHelp}, true }},
}

// wireRules is the grammar the wire front-end parses against (spec.md
// §4.2 table, wire column), in first-match-wins order.
var wireRules = []rule{
	{reListBreakpoints, func(m []string) (Command, bool) { return Command{Kind: KindListBreakpoints}, true }},
	{reDeleteBreakpoint, deleteBreakpointFrom},
	{reAddBreakpoint, addBreakpointFrom},
	{reStart, func(m []string) (Command, bool) { return Command{Kind: KindStart}, true }},
	{reExit, func(m []string) (Command, bool) { return Command{Kind: KindExit}, true }},
	{reContinue, func(m []string) (Command, bool) { return Command{Kind: KindContinue}, true }},
	{reFinish, func(m []string) (Command, bool) { return Command{Kind: KindStepOut}, true }},
	{reStep, func(m []string) (Command, bool) { return Command{Kind: KindStep}, true }},
	{reStepOver, func(m []string) (Command, bool) { return Command{Kind: KindStepOver}, true }},
	{reWhere, func(m []string) (Command, bool) { return Command{Kind: KindWhere}, true }},
	{reFrameSelect, frameSelectFrom},
	{reThreadList, func(m []string) (Command, bool) { return Command{Kind: KindThreadList}, true }},
	{reVarGlobal, func(m []string) (Command, bool) { return Command{Kind: KindVars, Scope: ScopeGlobal}, true }},
	{reVarLocal, func(m []string) (Command, bool) { return Command{Kind: KindVars, Scope: ScopeLocal}, true }},
	{reVarInstance, varInstanceFrom},
	{reEvalWire, func(m []string) (Command, bool) { return Command{Kind: KindEval, Expression: m[1]}, true }},
}

// ParseConsole parses one console input line. The eval fallthrough
// (spec.md §4.2: "any non-empty line not matching above") only applies
// when no rule's pattern matched at all; a pattern that matched
// structurally but whose argument failed to build (e.g. "del abc") is a
// hard parse error and must not fall through to eval (original behavior:
// EvaluateCommand's final else only evaluates a non-empty command it could
// not otherwise recognize).
func ParseConsole(line string) Command {
	trimmed := strings.TrimLeft(line, " \t")
	if cmd, structural := match(consoleRules, trimmed); structural {
		cmd.Raw = line
		return cmd
	}
	if trimmed == "" {
		return Command{Kind: KindUnknown, Raw: line}
	}
	return Command{Kind: KindEval, Expression: trimmed, Raw: line}
}

// ParseWire parses one wire command (already split on ';' and trimmed by
// the caller). Unlike the console, there is no eval fallthrough: any
// unmatched or empty line is KindUnknown.
func ParseWire(line string) Command {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return Command{Kind: KindUnknown, Raw: line}
	}
	cmd, _ := match(wireRules, trimmed)
	cmd.Raw = line
	return cmd
}

// match reports, in its second return, whether any rule's pattern matched
// s structurally, regardless of whether the rule's builder then accepted
// the arguments. A structural match whose builder rejected the arguments
// comes back as Command{Kind: KindUnknown} — a hard parse error that must
// never fall through to a later, looser rule (spec.md §7, "NumericOverflow
// ... treated as ParseError").
func match(rules []rule, s string) (Command, bool) {
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(s); m != nil {
			if cmd, ok := r.build(m); ok {
				return cmd, true
			}
			return Command{Kind: KindUnknown}, true
		}
	}
	return Command{Kind: KindUnknown}, false
}
