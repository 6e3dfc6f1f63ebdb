// Package codereview provides the tools and graph definition of the
// built-in code review pipeline: extract -> check_complexity ->
// detect_issues -> suggest_improvements, looping back to detect_issues while
// the quality score stays under the threshold.
package codereview

import (
	"strconv"
	"strings"

	"github.com/dshills/graphflow/graph"
	"github.com/dshills/graphflow/graph/tool"
)

// GraphID is the id the pipeline is preloaded under.
const GraphID = "code_review_example"

// Tool names.
const (
	ToolExtractFunctions    = "extract_functions"
	ToolCheckComplexity     = "check_complexity"
	ToolDetectIssues        = "detect_issues"
	ToolSuggestImprovements = "suggest_improvements"
)

// Issue and suggestion texts.
const (
	IssueDebugPrint       = "Debug print statements found"
	IssueTodo             = "TODO comments present"
	SuggestRefactor       = "Refactor large functions into smaller ones"
	SuggestFixBeforeMerge = "Fix detected issues before merging"
)

const (
	complexityPerFunction  = 2
	refactorComplexityOver = 5
	maxPenalty             = 10
)

// Register adds the four pipeline tools to reg.
func Register(reg *tool.Registry) {
	reg.MustRegister(ToolExtractFunctions, tool.Simple(ExtractFunctions))
	reg.MustRegister(ToolCheckComplexity, tool.Simple(CheckComplexity))
	reg.MustRegister(ToolDetectIssues, tool.Simple(DetectIssues))
	reg.MustRegister(ToolSuggestImprovements, tool.Simple(SuggestImprovements))
}

// Definition returns the pipeline graph. The quality loop is installed by
// default because the graph contains both suggest_improvements and
// detect_issues.
func Definition() *graph.Definition {
	return &graph.Definition{
		Nodes: map[string]string{
			"extract":              ToolExtractFunctions,
			"check_complexity":     ToolCheckComplexity,
			"detect_issues":        ToolDetectIssues,
			"suggest_improvements": ToolSuggestImprovements,
		},
		Edges: []graph.EdgeDef{
			{Source: "extract", Target: "check_complexity"},
			{Source: "check_complexity", Target: "detect_issues"},
			{Source: "detect_issues", Target: "suggest_improvements"},
		},
		EntryPoint: "extract",
	}
}

// ExtractFunctions names one function per "def " occurrence in state["code"]
// as func_1..func_n.
func ExtractFunctions(state map[string]any) map[string]any {
	code := graph.State(state).String("code", "")
	n := strings.Count(code, "def ")
	functions := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		functions = append(functions, "func_"+strconv.Itoa(i))
	}
	return map[string]any{"functions": functions}
}

// CheckComplexity scores two points per extracted function.
func CheckComplexity(state map[string]any) map[string]any {
	return map[string]any{
		"complexity_score": graph.State(state).Len("functions") * complexityPerFunction,
	}
}

// DetectIssues flags debug prints and TODO comments in state["code"].
func DetectIssues(state map[string]any) map[string]any {
	code := graph.State(state).String("code", "")
	issues := []string{}
	if strings.Contains(code, "print(") {
		issues = append(issues, IssueDebugPrint)
	}
	if strings.Contains(code, "TODO") {
		issues = append(issues, IssueTodo)
	}
	return map[string]any{"issues": issues, "issue_count": len(issues)}
}

// SuggestImprovements derives suggestions and a 0-10 quality score from
// complexity_score and issue_count.
func SuggestImprovements(state map[string]any) map[string]any {
	s := graph.State(state)
	complexity := s.Int("complexity_score", 0)
	issueCount := s.Int("issue_count", 0)

	suggestions := []string{}
	if complexity > refactorComplexityOver {
		suggestions = append(suggestions, SuggestRefactor)
	}
	if issueCount > 0 {
		suggestions = append(suggestions, SuggestFixBeforeMerge)
	}

	score := maxPenalty - min(complexity, maxPenalty) - min(issueCount*2, maxPenalty)
	return map[string]any{
		"suggestions":   suggestions,
		"quality_score": max(0, score),
	}
}
