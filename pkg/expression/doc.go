// Package expression evaluates the boolean and value expressions carried
// by a Condition node's params.
//
// # Overview
//
// A Condition node names one expression and evaluates it against its
// resolved inputs to pick a branch. This package compiles that
// expression through expr-lang/expr and caches the compiled program, so
// a condition re-evaluated on every loop iteration only compiles once.
//
// # Expression syntax
//
// Field access and indexing:
//
//	inputs.approval.status     // named input slot, nested field
//	inputs.items[0]            // array index
//	inputs.items[-1]           // last element
//
// A single-input condition may also compare the bare input directly,
// without naming a slot:
//
//	>100
//	== 'approved'
//
// Operators: +, -, *, /, %, ==, !=, >, <, >=, <=, &&, ||, !.
//
// # Built-in functions
//
// String: contains, startsWith, endsWith, upper, lower, trim, split,
// join, replace. There is no substr function.
//
// Array: len, first, last, reverse, sort, unique, flatten, concat,
// slice, zip, map (closure syntax: map(arr, {#.field})).
//
// Math: abs, ceil, floor, round, min, max, sum, avg, sqrt, pow — the
// aggregate functions accept either a single array argument or a
// variadic list of scalars.
//
// Date/time: now, parseDate, toEpoch, toEpochMillis, fromEpoch,
// fromEpochMillis, dateDiff, dateAdd, year, month, day, hour, minute.
//
// Null handling: isNull, coalesce.
//
// # Variables
//
// variables.<name> reaches the execution's scalar variables (loop
// counters, the engine's reserved max-iteration flags); each variable is
// also reachable unqualified as long as its name doesn't collide with
// "inputs" or "variables" themselves.
package expression
