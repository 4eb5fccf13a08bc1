// Package id provides opaque alphanumeric identifier generation for
// asset keys and download file names.
package id

import "math/rand/v2"

// alphabet is the 62-character alphanumeric set identifiers are drawn from.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the identifier length used for asset storage keys.
const DefaultLength = 21

// FileNameLength is the shorter identifier length used for download file names.
const FileNameLength = 8

// Generate returns a random string of the given length drawn uniformly from
// the alphanumeric alphabet. It offers no uniqueness guarantee beyond
// probabilistic collision resistance at the chosen length, which is enough
// for naming; it is not suitable for secrets.
func Generate(length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// New returns an identifier of the default length.
func New() string {
	return Generate(DefaultLength)
}
