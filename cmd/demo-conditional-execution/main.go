// Command demo-conditional-execution drives small diagrams through the
// execution core to show how Condition nodes route tokens down exactly
// one branch, leaving the other branch's nodes unexecuted.
package main

import (
	"context"
	"fmt"

	"github.com/dipeo/execengine/pkg/compiler"
	"github.com/dipeo/execengine/pkg/engine"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/types"
)

func main() {
	fmt.Println("=================================================")
	fmt.Println("Conditional Execution Demo")
	fmt.Println("=================================================")
	fmt.Println()

	demo1AgeBasedRouting()
	demo2CascadingStatusRouting()
	demo3NestedConditions()
}

// ageExpr compares the "age: <n>" input text to a threshold, grounded on
// the same split/int idiom the condition tests use for contains/startsWith.
func ageExpr(op string, threshold int) string {
	return fmt.Sprintf("int(split(input, \": \")[1]) %s %d", op, threshold)
}

func literal(id, text string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindTemplateJob, TemplateJob: &types.TemplateJobParams{Template: text}}
}

func startNode(id string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindStart, Start: &types.StartParams{}}
}

func endNode(id string) types.Node {
	return types.Node{ID: types.NodeID(id), Kind: types.KindEnd, End: &types.EndParams{}}
}

func conditionNode(id, expr string) types.Node {
	return types.Node{
		ID:   types.NodeID(id),
		Kind: types.KindCondition,
		Condition: &types.ConditionParams{
			ConditionKind: types.ConditionExpression,
			Expression:    expr,
		},
	}
}

func edgeTo(id, src, tgt, targetInputKey string) types.Edge {
	return types.Edge{ID: types.EdgeID(id), SourceNodeID: types.NodeID(src), TargetNodeID: types.NodeID(tgt), TargetInputKey: targetInputKey}
}

func branchEdge(id, src, tgt, branch string) types.Edge {
	return types.Edge{ID: types.EdgeID(id), SourceNodeID: types.NodeID(src), TargetNodeID: types.NodeID(tgt), SourceOutputKey: branch, TargetInputKey: "default"}
}

func run(d types.Diagram) (engine.Result, error) {
	compiled, err := compiler.Compile(d)
	if err != nil {
		return engine.Result{}, fmt.Errorf("compile: %w", err)
	}
	eng := engine.New(compiled, handlers.NewDefaultRegistry())
	return eng.Run(context.Background(), types.Options{})
}

func printOutcome(result engine.Result, candidates []string) {
	for _, id := range candidates {
		if _, executed := result.Outputs[types.NodeID(id)]; executed {
			fmt.Printf("  -> %s executed\n", id)
		}
	}
}

func demo1AgeBasedRouting() {
	fmt.Println("DEMO 1: Age-Based API Routing")
	fmt.Println("-----------------------------")
	fmt.Println("If age >= 18: profile_api -> sports_api. Otherwise: education_api.")
	fmt.Println()

	for _, age := range []int{25, 15} {
		fmt.Printf("age = %d:\n", age)

		d := types.Diagram{
			Nodes: []types.Node{
				startNode("start"),
				literal("age_source", fmt.Sprintf("%d", age)),
				conditionNode("age_check", ageExpr(">=", 18)),
				literal("profile_api", "fetched user profile"),
				literal("sports_api", "registered for sports"),
				literal("education_api", "registered for education"),
				endNode("end"),
			},
			Edges: []types.Edge{
				edgeTo("e1", "start", "age_source", "default"),
				edgeTo("e2", "age_source", "age_check", "age"),
				branchEdge("e3", "age_check", "profile_api", "condtrue"),
				edgeTo("e4", "profile_api", "sports_api", "default"),
				branchEdge("e5", "age_check", "education_api", "condfalse"),
				edgeTo("e6", "sports_api", "end", "default"),
				edgeTo("e7", "education_api", "end", "default"),
			},
		}

		result, err := run(d)
		if err != nil {
			fmt.Printf("  error: %v\n", err)
			continue
		}
		printOutcome(result, []string{"profile_api", "sports_api", "education_api"})
		fmt.Println()
	}
}

func demo2CascadingStatusRouting() {
	fmt.Println("DEMO 2: HTTP Status Code Routing")
	fmt.Println("--------------------------------")
	fmt.Println("A cascade of Condition nodes stands in for a switch over status code.")
	fmt.Println()

	for _, code := range []int{200, 404, 500, 301} {
		fmt.Printf("status_code = %d:\n", code)

		d := types.Diagram{
			Nodes: []types.Node{
				startNode("start"),
				literal("code_source", fmt.Sprintf("%d", code)),
				conditionNode("is200", ageExpr("==", 200)),
				conditionNode("is404", ageExpr("==", 404)),
				conditionNode("is500up", ageExpr(">=", 500)),
				literal("success_handler", "processed successful response"),
				literal("not_found_handler", "handled not found"),
				literal("error_handler", "logged server error"),
				literal("other_handler", "unclassified status code"),
				endNode("end"),
			},
			Edges: []types.Edge{
				edgeTo("e1", "start", "code_source", "default"),
				edgeTo("e2", "code_source", "is200", "age"),
				branchEdge("e3", "is200", "success_handler", "condtrue"),
				edgeTo("e4", "is200", "is404", "age"),
				branchEdge("e5", "is404", "not_found_handler", "condtrue"),
				edgeTo("e6", "is404", "is500up", "age"),
				branchEdge("e7", "is500up", "error_handler", "condtrue"),
				branchEdge("e8", "is500up", "other_handler", "condfalse"),
				edgeTo("e9", "success_handler", "end", "default"),
				edgeTo("e10", "not_found_handler", "end", "default"),
				edgeTo("e11", "error_handler", "end", "default"),
				edgeTo("e12", "other_handler", "end", "default"),
			},
		}

		result, err := run(d)
		if err != nil {
			fmt.Printf("  error: %v\n", err)
			continue
		}
		printOutcome(result, []string{"success_handler", "not_found_handler", "error_handler", "other_handler"})
		fmt.Println()
	}
}

func demo3NestedConditions() {
	fmt.Println("DEMO 3: Nested Conditions")
	fmt.Println("-------------------------")
	fmt.Println("age >= 18 AND country == US -> special_offer")
	fmt.Println("age >= 18 AND country != US -> standard_offer")
	fmt.Println("age < 18                   -> parental_consent")
	fmt.Println()

	type testCase struct {
		age     int
		country string
	}
	for _, tc := range []testCase{{25, "US"}, {25, "UK"}, {15, "US"}} {
		fmt.Printf("age = %d, country = %s:\n", tc.age, tc.country)

		d := types.Diagram{
			Nodes: []types.Node{
				startNode("start"),
				literal("age_source", fmt.Sprintf("%d", tc.age)),
				literal("country_source", tc.country),
				conditionNode("age_check", ageExpr(">=", 18)),
				conditionNode("country_check", `contains(input, "country: US")`),
				literal("special_offer", "US special offer applied"),
				literal("standard_offer", "standard offer applied"),
				literal("parental_consent", "parental consent required"),
				endNode("end"),
			},
			Edges: []types.Edge{
				edgeTo("e1", "start", "age_source", "default"),
				edgeTo("e2", "start", "country_source", "default"),
				edgeTo("e3", "age_source", "age_check", "age"),
				{ID: "e4", SourceNodeID: "age_check", TargetNodeID: "country_check", SourceOutputKey: "condtrue", TargetInputKey: "gate"},
				edgeTo("e5", "country_source", "country_check", "country"),
				branchEdge("e6", "country_check", "special_offer", "condtrue"),
				branchEdge("e7", "country_check", "standard_offer", "condfalse"),
				branchEdge("e8", "age_check", "parental_consent", "condfalse"),
				edgeTo("e9", "special_offer", "end", "default"),
				edgeTo("e10", "standard_offer", "end", "default"),
				edgeTo("e11", "parental_consent", "end", "default"),
			},
		}

		result, err := run(d)
		if err != nil {
			fmt.Printf("  error: %v\n", err)
			continue
		}
		printOutcome(result, []string{"special_offer", "standard_offer", "parental_consent"})
		fmt.Println()
	}
}
