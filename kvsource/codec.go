package kvsource

import (
	"github.com/goccy/go-json"
)

// Decoder turns a stored value into T.
type Decoder[T any] func(data []byte) (T, error)

// Encoder turns T into a stored value.
type Encoder[T any] func(v T) ([]byte, error)

// JSONDecoder decodes values stored as JSON.
func JSONDecoder[T any]() Decoder[T] {
	return func(data []byte) (T, error) {
		var v T
		err := json.Unmarshal(data, &v)
		return v, err
	}
}

// JSONEncoder stores values as JSON.
func JSONEncoder[T any]() Encoder[T] {
	return func(v T) ([]byte, error) {
		return json.Marshal(v)
	}
}

// Raw leaves values as bytes. The slice is copied out of the transaction.
func Raw(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}
