package types

import "github.com/wealdtech/go-bytesutil"

// RootFromBytes pads or truncates b to 32 bytes and returns it as a Root,
// the fixed-width conversion every bolt-key reader needs when turning a
// variable-length []byte back into a hash.
func RootFromBytes(b []byte) Root {
	return Root(bytesutil.ToBytes32(b))
}
