package ir

import (
	"slices"
	"strconv"
	"strings"
)

// Loop is a natural loop discovered from back edges. Body starts with Header.
// Loops nested in one another are reported separately; an outer body also
// contains the blocks of every loop whose header it contains.
type Loop struct {
	Header int
	Body   []int
}

// Contains reports whether block idx is in the loop body.
func (l Loop) Contains(idx int) bool {
	return slices.Contains(l.Body, idx)
}

func (l Loop) key() string {
	var sb strings.Builder
	for i, b := range l.Body {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(b))
	}
	return sb.String()
}

// FindLoops returns the loops of f sorted by header.
//
// A back edge b -> h has h <= b and h, b in the same strongly connected
// component of the full CFG. Every back edge is removed, then each header's
// edges are restored on their own and the components through them form
// that loop's body. An inner loop that exits from its header is cut off
// from the outer component by its own back edge, so the bodies of loops
// headed inside another loop are folded into it afterwards.
func FindLoops(f *Func) []Loop {
	n := len(f.Blocks)
	if n == 0 {
		return nil
	}
	succs := make([][]int, n)
	for i := range f.Blocks {
		succs[i] = f.Blocks[i].Term.Successors()
	}
	base := stronglyConnected(n, succs)

	var headers []int
	backedges := make(map[int][]int)
	for b := 0; b < n; b++ {
		for _, h := range succs[b] {
			if h < 0 || h >= n || h > b || !base.same(h, b) {
				continue
			}
			if _, ok := backedges[h]; !ok {
				headers = append(headers, h)
			}
			if !slices.Contains(backedges[h], b) {
				backedges[h] = append(backedges[h], b)
			}
		}
	}
	if len(headers) == 0 {
		return nil
	}

	isBack := func(from, to int) bool {
		return slices.Contains(backedges[to], from)
	}
	pruned := make([][]int, n)
	for b := range succs {
		for _, s := range succs[b] {
			if !isBack(b, s) {
				pruned[b] = append(pruned[b], s)
			}
		}
	}

	seen := make(map[string]struct{})
	var loops []Loop
	slices.Sort(headers)
	for _, h := range headers {
		restored := make([][]int, n)
		copy(restored, pruned)
		selfLoop := false
		for _, b := range backedges[h] {
			restored[b] = append(slices.Clone(restored[b]), h)
			if b == h {
				selfLoop = true
			}
		}
		for _, members := range stronglyConnected(n, restored).comps {
			if len(members) < 2 && !(selfLoop && members[0] == h) {
				continue
			}
			body := slices.Clone(members)
			slices.Reverse(body)
			header := body[0]
			if i := slices.Index(body, h); i > 0 {
				body = append([]int{h}, slices.Delete(body, i, i+1)...)
				header = h
			} else if i == 0 {
				header = h
			}
			l := Loop{Header: header, Body: body}
			if _, dup := seen[l.key()]; dup {
				continue
			}
			seen[l.key()] = struct{}{}
			loops = append(loops, l)
		}
	}
	loops = foldNested(loops)
	slices.SortStableFunc(loops, func(a, b Loop) int { return a.Header - b.Header })
	return loops
}

// foldNested adds to each loop the blocks of the loops headed inside it,
// repeating until no body grows. A loop that also contains the outer
// header is the same region seen from another back edge and is left alone.
func foldNested(loops []Loop) []Loop {
	for changed := true; changed; {
		changed = false
		for i := range loops {
			outer := &loops[i]
			for j, inner := range loops {
				if i == j || inner.Header == outer.Header || !outer.Contains(inner.Header) || inner.Contains(outer.Header) {
					continue
				}
				for _, b := range inner.Body {
					if !outer.Contains(b) {
						outer.Body = append(outer.Body, b)
						changed = true
					}
				}
			}
		}
	}
	seen := make(map[string]struct{}, len(loops))
	out := loops[:0]
	for _, l := range loops {
		if _, dup := seen[l.key()]; dup {
			continue
		}
		seen[l.key()] = struct{}{}
		out = append(out, l)
	}
	return out
}
