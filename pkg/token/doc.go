// Package token tracks unconsumed productions on each edge of a compiled
// diagram and evaluates the scheduler's node-readiness predicate. A node
// becomes ready when every input key it requires has at least one token
// on some incoming edge bound to that key, with exceptions for entry
// nodes, a PersonJob's first-only inputs, and Condition's single-branch
// output.
package token
