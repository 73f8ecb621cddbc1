package bloom

import "github.com/google/uuid"

// randomKeys returns n distinct random keys (UUID strings).
func randomKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(uuid.NewString())
	}
	return keys
}
