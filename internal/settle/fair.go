package settle

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

// Roll derives a provably-fair number in [0, 100) from the server seed, the
// player's seed and a per-player nonce. The hash is returned so players can
// verify the draw once the server seed is revealed.
func Roll(serverSeed, clientSeed string, nonce uint64) (float64, string) {
	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(clientSeed + ":" + strconv.FormatUint(nonce, 10)))
	sum := hex.EncodeToString(h.Sum(nil))

	n, _ := strconv.ParseUint(sum[:8], 16, 64)
	return float64(n%10000) / 100, sum
}

// SeedManager rotates the server seed daily and publishes only its hash
// until rotation reveals it.
type SeedManager struct {
	mu        sync.Mutex
	seed      string
	hash      string
	rotatedAt time.Time
}

func NewSeedManager() *SeedManager {
	m := &SeedManager{}
	m.rotate()
	return m
}

func (m *SeedManager) rotate() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// A commitment derived from a partial seed would be unverifiable.
		panic("seed rotation: " + err.Error())
	}
	m.seed = hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(m.seed))
	m.hash = hex.EncodeToString(sum[:])
	m.rotatedAt = time.Now()
}

// Current returns the active seed and its public hash, rotating first when
// the seed is older than a day.
func (m *SeedManager) Current() (seed, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.rotatedAt) > 24*time.Hour {
		m.rotate()
	}
	return m.seed, m.hash
}
