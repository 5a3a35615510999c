package credential

import "encoding/binary"

const (
	hashMul  uint64 = 0xc6a4a7935bd1e995
	hashSeed uint64 = 0xc70f6907
)

// HashPassword returns the 64-bit digest used for stored credentials.
// It matches libstdc++'s std::hash<std::string> on 64-bit platforms so that
// hashed_users.txt files written by older tooling stay valid.
func HashPassword(password string) uint64 {
	buf := []byte(password)
	n := len(buf)
	hash := hashSeed ^ (uint64(n) * hashMul)

	aligned := n &^ 7
	for i := 0; i < aligned; i += 8 {
		data := shiftMix(binary.LittleEndian.Uint64(buf[i:])*hashMul) * hashMul
		hash ^= data
		hash *= hashMul
	}
	if rest := n & 7; rest != 0 {
		var data uint64
		for i := rest - 1; i >= 0; i-- {
			data = data<<8 | uint64(buf[aligned+i])
		}
		hash ^= data
		hash *= hashMul
	}
	hash = shiftMix(hash) * hashMul
	hash = shiftMix(hash)
	return hash
}

func shiftMix(v uint64) uint64 {
	return v ^ (v >> 47)
}
