package mask

import (
	"fmt"
	"strconv"
)

type point struct{ x, y float64 }

type opcode uint8

const (
	opMove opcode = iota
	opLine
	opQuad
	opCube
	opClose
)

// segment is one absolute drawing command; pts holds the control points
// followed by the end point.
type segment struct {
	op  opcode
	pts [3]point
}

// parsePathData converts SVG path data into absolute segments. Supported
// commands: M L H V C S Q T Z, each in absolute and relative form.
func parsePathData(d string) ([]segment, error) {
	sc := &scanner{s: d}
	var (
		segs    []segment
		cmd     byte
		cur     point
		start   point
		lastCtl point
		lastCmd byte
	)
	for {
		sc.skipSeparators()
		if sc.done() {
			break
		}
		if c := sc.peek(); isCommand(c) {
			cmd = c
			sc.pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data: expected command at offset %d", sc.pos)
		}

		rel := cmd >= 'a'
		base := point{}
		if rel {
			base = cur
		}
		switch cmd {
		case 'Z', 'z':
			segs = append(segs, segment{op: opClose})
			cur = start
			cmd, lastCmd = 0, 'Z'
			continue
		case 'M', 'm':
			p, err := sc.point(base)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{op: opMove, pts: [3]point{p}})
			cur, start = p, p
			// subsequent pairs are implicit line-tos
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			p, err := sc.point(base)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{op: opLine, pts: [3]point{p}})
			cur = p
		case 'H', 'h':
			x, err := sc.number()
			if err != nil {
				return nil, err
			}
			p := point{x + base.x, cur.y}
			segs = append(segs, segment{op: opLine, pts: [3]point{p}})
			cur = p
		case 'V', 'v':
			y, err := sc.number()
			if err != nil {
				return nil, err
			}
			p := point{cur.x, y + base.y}
			segs = append(segs, segment{op: opLine, pts: [3]point{p}})
			cur = p
		case 'C', 'c':
			var pts [3]point
			for i := range pts {
				p, err := sc.point(base)
				if err != nil {
					return nil, err
				}
				pts[i] = p
			}
			segs = append(segs, segment{op: opCube, pts: pts})
			lastCtl, cur = pts[1], pts[2]
		case 'S', 's':
			c1 := cur
			if lastCmd == 'C' || lastCmd == 'S' {
				c1 = reflect(lastCtl, cur)
			}
			c2, err := sc.point(base)
			if err != nil {
				return nil, err
			}
			end, err := sc.point(base)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{op: opCube, pts: [3]point{c1, c2, end}})
			lastCtl, cur = c2, end
		case 'Q', 'q':
			ctl, err := sc.point(base)
			if err != nil {
				return nil, err
			}
			end, err := sc.point(base)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{op: opQuad, pts: [3]point{ctl, end}})
			lastCtl, cur = ctl, end
		case 'T', 't':
			ctl := cur
			if lastCmd == 'Q' || lastCmd == 'T' {
				ctl = reflect(lastCtl, cur)
			}
			end, err := sc.point(base)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{op: opQuad, pts: [3]point{ctl, end}})
			lastCtl, cur = ctl, end
		default:
			return nil, fmt.Errorf("path data: unsupported command %q", cmd)
		}
		lastCmd = upper(cmd)
	}
	return segs, nil
}

func reflect(ctl, about point) point {
	return point{2*about.x - ctl.x, 2*about.y - ctl.y}
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func isCommand(c byte) bool {
	switch upper(c) {
	case 'M', 'L', 'H', 'V', 'C', 'S', 'Q', 'T', 'Z', 'A':
		return true
	}
	return false
}

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) done() bool { return sc.pos >= len(sc.s) }
func (sc *scanner) peek() byte { return sc.s[sc.pos] }

func (sc *scanner) skipSeparators() {
	for !sc.done() {
		switch sc.peek() {
		case ' ', '\t', '\n', '\r', ',':
			sc.pos++
		default:
			return
		}
	}
}

func (sc *scanner) point(base point) (point, error) {
	x, err := sc.number()
	if err != nil {
		return point{}, err
	}
	y, err := sc.number()
	if err != nil {
		return point{}, err
	}
	return point{x + base.x, y + base.y}, nil
}

// number reads one SVG number. Numbers may follow each other without a
// separator when the next one starts with a sign or a second dot.
func (sc *scanner) number() (float64, error) {
	sc.skipSeparators()
	start := sc.pos
	if !sc.done() && (sc.peek() == '-' || sc.peek() == '+') {
		sc.pos++
	}
	digits, dot := false, false
scan:
	for !sc.done() {
		c := sc.peek()
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot:
			dot = true
		default:
			break scan
		}
		sc.pos++
	}
	if digits && !sc.done() && (sc.peek() == 'e' || sc.peek() == 'E') {
		mark := sc.pos
		sc.pos++
		if !sc.done() && (sc.peek() == '-' || sc.peek() == '+') {
			sc.pos++
		}
		expDigits := false
		for !sc.done() && sc.peek() >= '0' && sc.peek() <= '9' {
			sc.pos++
			expDigits = true
		}
		if !expDigits {
			sc.pos = mark
		}
	}
	if !digits {
		return 0, fmt.Errorf("path data: expected number at offset %d", start)
	}
	return strconv.ParseFloat(sc.s[start:sc.pos], 64)
}
