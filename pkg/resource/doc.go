// Package resource implements the eight resource kinds — User, Group,
// File, Dir, Package, Service, Host, Sysctl — each satisfying the
// Resource protocol: Set stores a declared attribute, Norm synthesizes
// implicit dependencies, Stat reads observed state without mutating it,
// Fixup applies the minimum corrective actions (or simulates them under
// dryrun), Pack/Unpack round-trip declared state over the wire, and
// Notify reacts to a dependency having changed.
//
// Every kind keeps an enforced bitset (attributes the policy declared)
// and a different bitset, computed by Stat, of enforced attributes whose
// observed value disagrees. Fixup decides presence first — an enforced
// ABSENT short-circuits every other attribute — then walks attributes in
// a fixed order specific to each kind, producing one
// Action per decision point so reports are reproducible across runs.
package resource
