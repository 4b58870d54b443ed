// Package manifest loads declarative policy manifests and wires a
// template-backed content source for File resources declared from a
// local template tree, the two pieces of the CLI surface that sit in
// front of pkg/policy and pkg/resource.
package manifest
