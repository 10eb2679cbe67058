package ir

// components is the result of a strongly connected component decomposition.
// comps lists components in completion order, each in stack pop order;
// comp maps a vertex to its index in comps.
type components struct {
	comp  []int
	comps [][]int
}

func (c components) same(a, b int) bool {
	return c.comp[a] >= 0 && c.comp[a] == c.comp[b]
}

type sccWork struct {
	v    int
	edge int
}

// stronglyConnected runs Tarjan's algorithm over vertices 0..n-1 using an
// explicit work stack. Roots are taken in index order. Successors outside
// the vertex range are ignored.
func stronglyConnected(n int, succs [][]int) components {
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	comp := make([]int, n)
	for i := range index {
		index[i] = -1
		comp[i] = -1
	}

	var (
		stack []int
		work  []sccWork
		comps [][]int
		next  int
	)

	visit := func(v int) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true
		work = append(work, sccWork{v: v})
	}

	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		visit(root)
		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.v
			if top.edge < len(succs[v]) {
				w := succs[v][top.edge]
				top.edge++
				if w < 0 || w >= n {
					continue
				}
				if index[w] == -1 {
					visit(w)
				} else if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				if p := work[len(work)-1].v; low[v] < low[p] {
					low[p] = low[v]
				}
			}
			if low[v] != index[v] {
				continue
			}
			id := len(comps)
			var members []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = id
				members = append(members, w)
				if w == v {
					break
				}
			}
			comps = append(comps, members)
		}
	}
	return components{comp: comp, comps: comps}
}
