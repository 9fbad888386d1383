package common

// WipeByteArray overwrites the slice with zeros. Used to shorten the
// lifetime of password bytes in memory.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
