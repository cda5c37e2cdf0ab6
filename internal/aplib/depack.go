// Package aplib implements the aPLib compression format used by the PAK chunks.
package aplib

import "errors"

var (
	ErrInputOverrun  = errors.New("aplib: compressed input ended early")
	ErrOutputOverrun = errors.New("aplib: output exceeds destination buffer")
	ErrBadOffset     = errors.New("aplib: match offset points before the output start")
)

type reader struct {
	src      []byte
	pos      int
	tag      byte
	bitcount int
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.src) {
		return 0, ErrInputOverrun
	}
	b := r.src[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bit() (int, error) {
	if r.bitcount == 0 {
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		r.tag = b
		r.bitcount = 8
	}
	r.bitcount--
	bit := int(r.tag>>7) & 1
	r.tag <<= 1
	return bit, nil
}

// gamma reads an Elias-gamma style number (always >= 2).
func (r *reader) gamma() (int, error) {
	result := 1
	for {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		result = result<<1 + b
		if result > 1<<30 {
			return 0, ErrInputOverrun
		}
		more, err := r.bit()
		if err != nil {
			return 0, err
		}
		if more == 0 {
			return result, nil
		}
	}
}

// Depack decompresses src into dst and returns the number of bytes written.
// It never writes beyond len(dst).
func Depack(dst, src []byte) (int, error) {
	r := reader{src: src}
	out := 0

	put := func(b byte) error {
		if out >= len(dst) {
			return ErrOutputOverrun
		}
		dst[out] = b
		out++
		return nil
	}
	copyMatch := func(offs, length int) error {
		if offs <= 0 || offs > out {
			return ErrBadOffset
		}
		for ; length > 0; length-- {
			if err := put(dst[out-offs]); err != nil {
				return err
			}
		}
		return nil
	}

	b, err := r.byte()
	if err != nil {
		return 0, err
	}
	if err := put(b); err != nil {
		return 0, err
	}

	lwm := 0
	r0 := 0
	for {
		bit, err := r.bit()
		if err != nil {
			return out, err
		}
		if bit == 0 {
			// literal
			if b, err = r.byte(); err != nil {
				return out, err
			}
			if err := put(b); err != nil {
				return out, err
			}
			lwm = 0
			continue
		}

		if bit, err = r.bit(); err != nil {
			return out, err
		}
		if bit == 0 {
			// 10: gamma coded match
			offs, err := r.gamma()
			if err != nil {
				return out, err
			}
			if lwm == 0 && offs == 2 {
				length, err := r.gamma()
				if err != nil {
					return out, err
				}
				if err := copyMatch(r0, length); err != nil {
					return out, err
				}
			} else {
				if lwm == 0 {
					offs -= 3
				} else {
					offs -= 2
				}
				lo, err := r.byte()
				if err != nil {
					return out, err
				}
				offs = offs<<8 + int(lo)
				length, err := r.gamma()
				if err != nil {
					return out, err
				}
				if offs >= 32000 {
					length++
				}
				if offs >= 1280 {
					length++
				}
				if offs < 128 {
					length += 2
				}
				if err := copyMatch(offs, length); err != nil {
					return out, err
				}
				r0 = offs
			}
			lwm = 1
			continue
		}

		if bit, err = r.bit(); err != nil {
			return out, err
		}
		if bit == 0 {
			// 110: short match, a zero offset ends the stream
			v, err := r.byte()
			if err != nil {
				return out, err
			}
			length := 2 + int(v&1)
			offs := int(v >> 1)
			if offs == 0 {
				return out, nil
			}
			if err := copyMatch(offs, length); err != nil {
				return out, err
			}
			r0 = offs
			lwm = 1
			continue
		}

		// 111: single byte from up to 15 back, or a zero byte
		offs := 0
		for i := 0; i < 4; i++ {
			if bit, err = r.bit(); err != nil {
				return out, err
			}
			offs = offs<<1 + bit
		}
		if offs == 0 {
			err = put(0)
		} else {
			err = copyMatch(offs, 1)
		}
		if err != nil {
			return out, err
		}
		lwm = 0
	}
}
