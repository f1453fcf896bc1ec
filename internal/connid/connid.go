// Package connid issues the opaque identifiers the server assigns to each
// WebSocket connection. A player's id is the id of the connection that
// joined, so ids must be unique for the lifetime of the process and
// meaningless to clients.
package connid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Crockford base32, as used by TypeID
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded id
const Length = 26

// RandSource supplies random bits; *math/rand/v2.Rand satisfies it.
type RandSource interface {
	Uint64() uint64
}

// Generator produces UUIDv7-based ids encoded as 26 base32 characters.
// Ids sort by creation time at millisecond granularity.
type Generator struct {
	mu  sync.Mutex
	src RandSource
	now func() time.Time
}

// NewGenerator creates a generator. A nil src uses crypto/rand.
func NewGenerator(src RandSource) *Generator {
	return &Generator{src: src, now: time.Now}
}

// New returns a fresh id
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return encode(g.uuidV7())
}

func (g *Generator) uuidV7() [16]byte {
	var id [16]byte

	ms := g.now().UnixMilli()
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if g.src != nil {
		hi, lo := g.src.Uint64(), g.src.Uint64()
		for i := 0; i < 8; i++ {
			id[6+i] = byte(hi >> (56 - 8*i))
		}
		id[14], id[15] = byte(lo>>8), byte(lo)
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("connid: reading random bytes: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // variant 10
	return id
}

// encode writes the 128 bits as 26 five-bit groups, most significant first.
// The leading group only carries 3 bits, so it is always '0'-'7'.
func encode(id [16]byte) string {
	var out [Length]byte
	bit := -2 // the 130-bit field has two implicit leading zero bits
	for i := 0; i < Length; i++ {
		var v byte
		for j := 0; j < 5; j++ {
			v <<= 1
			if b := bit + j; b >= 0 && id[b/8]&(0x80>>(b%8)) != 0 {
				v |= 1
			}
		}
		out[i] = alphabet[v]
		bit += 5
	}
	return string(out[:])
}

// Validate checks that id is a well-formed connection id
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("connection id must be %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("connection id first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
