// Package compiler turns an author-facing types.Diagram into an
// ExecutableDiagram: every node validated against its kind's parameter
// schema, every edge checked against a known source and target, and a
// topological hint computed for scheduler tie-breaking. Structural
// problems (unknown node references, handles with the wrong direction,
// unknown kinds)
// fail the whole compile; everything else becomes a non-fatal warning
// attached to the result.
package compiler
