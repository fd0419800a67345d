package graph

import "errors"

var (
	ErrEmptyGraph   = errors.New("graph is empty")
	ErrNodeNotFound = errors.New("node not found in graph")
)
