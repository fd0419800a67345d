// Package inputs implements the Input Resolver: it turns the set of
// incoming edges a scheduler decided a node may consume into the
// inputs map a handler actually reads, selecting the representation
// each edge's content type calls for and binding it under the edge's
// (possibly renamed) input key.
package inputs
