// Package eq defines the equality/hash injection point used by keyed
// operators (Join, GroupJoin, GroupBy, ToLookup, Distinct).
//
// A Comparer must be consistent: Equal(a, b) implies Hash(a) == Hash(b).
// Default covers comparable types with == and hash/maphash.
package eq
