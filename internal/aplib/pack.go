package aplib

const (
	maxShortOffset = 127
	maxShortLength = 3
	maxNearOffset  = 15
)

type writer struct {
	out    []byte
	tagPos int
	left   int
}

func (w *writer) bit(b int) {
	if w.left == 0 {
		w.tagPos = len(w.out)
		w.out = append(w.out, 0)
		w.left = 8
	}
	w.left--
	if b != 0 {
		w.out[w.tagPos] |= 1 << uint(w.left)
	}
}

func (w *writer) bits(v, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bit((v >> uint(i)) & 1)
	}
}

// Pack compresses src. It only emits literals, single byte references and
// short matches, which keeps it simple while producing streams any aPLib
// depacker accepts. An empty src yields nil.
func Pack(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	w := writer{out: make([]byte, 0, len(src)+len(src)/8+4)}
	w.out = append(w.out, src[0])

	for i := 1; i < len(src); {
		offs, length := longestShortMatch(src, i)
		switch {
		case length >= 2:
			w.bits(0b110, 3)
			w.out = append(w.out, byte(offs<<1|(length-2)))
			i += length
			continue
		case src[i] == 0:
			w.bits(0b111, 3)
			w.bits(0, 4)
		case nearMatch(src, i) > 0:
			w.bits(0b111, 3)
			w.bits(nearMatch(src, i), 4)
		default:
			w.bit(0)
			w.out = append(w.out, src[i])
		}
		i++
	}

	// end of stream: short match with offset zero
	w.bits(0b110, 3)
	w.out = append(w.out, 0)
	return w.out
}

func longestShortMatch(src []byte, i int) (offs, length int) {
	for o := 1; o <= maxShortOffset && o <= i; o++ {
		n := 0
		for n < maxShortLength && i+n < len(src) && src[i+n] == src[i+n-o] {
			n++
		}
		if n > length {
			offs, length = o, n
			if n == maxShortLength {
				break
			}
		}
	}
	return offs, length
}

func nearMatch(src []byte, i int) int {
	for o := 1; o <= maxNearOffset && o <= i; o++ {
		if src[i-o] == src[i] {
			return o
		}
	}
	return 0
}
