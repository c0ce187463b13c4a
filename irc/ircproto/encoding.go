// Package ircproto holds wire-level helpers that need a dependency
// heavier than the core irc package pulls in for everyday parsing.
package ircproto

import (
	"golang.org/x/text/encoding"
)

// FromBinary decodes raw bytes received off the wire using enc (e.g.
// charmap.ISO8859_1, or any encoding.Encoding a caller picks for a legacy
// network that isn't UTF-8 clean), replacing malformed sequences with
// U+FFFD rather than failing the read, mirroring how IRC clients in the
// wild tolerate non-UTF-8 servers instead of dropping the connection.
func FromBinary(raw []byte, enc encoding.Encoding) (string, error) {
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(decoded), err
	}
	return string(decoded), nil
}

// ToBinary encodes text for a server that does not speak UTF-8, the
// reverse of FromBinary.
func ToBinary(text string, enc encoding.Encoding) ([]byte, error) {
	return enc.NewEncoder().Bytes([]byte(text))
}
