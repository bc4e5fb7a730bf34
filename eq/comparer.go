package eq

import (
	"hash/maphash"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Comparer supplies equality and a compatible hash for values of type T.
type Comparer[T any] interface {
	Equal(a, b T) bool
	Hash(v T) uint64
}

var seed = maphash.MakeSeed()

type defaultComparer[T comparable] struct{}

func (defaultComparer[T]) Equal(a, b T) bool { return a == b }
func (defaultComparer[T]) Hash(v T) uint64   { return maphash.Comparable(seed, v) }

// Default returns the natural comparer for a comparable type.
func Default[T comparable]() Comparer[T] {
	return defaultComparer[T]{}
}

type funcComparer[T any] struct {
	equal func(a, b T) bool
	hash  func(v T) uint64
}

func (c funcComparer[T]) Equal(a, b T) bool { return c.equal(a, b) }
func (c funcComparer[T]) Hash(v T) uint64   { return c.hash(v) }

// Func builds a Comparer from an equality and a hash function.
func Func[T any](equal func(a, b T) bool, hash func(v T) uint64) Comparer[T] {
	return funcComparer[T]{equal: equal, hash: hash}
}

// By compares values of T through a comparable projection.
func By[T any, K comparable](key func(T) K) Comparer[T] {
	return funcComparer[T]{
		equal: func(a, b T) bool { return key(a) == key(b) },
		hash:  func(v T) uint64 { return maphash.Comparable(seed, key(v)) },
	}
}

// FoldString compares strings case-insensitively under Unicode simple folding,
// the equivalence of strings.EqualFold. Equal strings hash alike: each rune is
// hashed as the least member of its fold orbit, so σ, ς and Σ share a hash.
func FoldString() Comparer[string] {
	return funcComparer[string]{equal: strings.EqualFold, hash: foldHash}
}

func foldHash(v string) uint64 {
	var (
		h   maphash.Hash
		buf [utf8.UTFMax]byte
	)
	h.SetSeed(seed)
	for _, r := range v {
		n := utf8.EncodeRune(buf[:], foldRune(r))
		_, _ = h.Write(buf[:n])
	}
	return h.Sum64()
}

// foldRune returns the least rune of the unicode.SimpleFold orbit of r.
func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		if 'a' <= r && r <= 'z' {
			r -= 'a' - 'A'
		}
		return r
	}
	least := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		least = min(least, f)
	}
	return least
}
