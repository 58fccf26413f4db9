// Package coordinate maps dependency records to ClearlyDefined coordinates.
//
// A coordinate has five slash-separated fields:
//
//	type/provider/namespace/name/revision
//
// where namespace is "-" for ecosystems without one. Each supported package
// manager is an [Ecosystem] entry in a closed table; the entry owns the
// type/provider pair and the rules that derive namespace, name and revision
// from the host's packageName and requirements strings.
//
// Mapping is pure. A record whose package manager is not in the table yields
// no coordinate; [MapAll] drops it and records one UNSUPPORTED_ECOSYSTEM
// warning. Short or odd version strings are not rejected: the rules simply
// produce an empty or truncated revision.
package coordinate
