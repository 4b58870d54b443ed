// Package value provides the small, dependency-free data types shared by
// every resource kind: an ordered, duplicate-free StringList used for group
// membership and host aliases, SHA-1 content hashing, and the positional
// pack/unpack wire
// codec used to serialize resources between a policy loader and an agent.
package value
