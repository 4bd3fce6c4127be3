package thesaurus

// candidate is a neighbour competing for a place in the result.
type candidate struct {
	word  string
	score float32
}

// better orders candidates by score descending, then word ascending. Words
// of one query share the key prefix, so word order is key order.
func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.word < b.word
}

// topN keeps the n best candidates seen so far in a heap whose root is the
// worst of them, so each offer costs O(log n).
type topN struct {
	n     int
	items []candidate
}

func newTopN(n int) *topN {
	return &topN{n: n, items: make([]candidate, 0, min(n, 64))}
}

func (t *topN) offer(c candidate) {
	if len(t.items) < t.n {
		t.items = append(t.items, c)
		t.siftUp(len(t.items) - 1)
		return
	}
	if !better(c, t.items[0]) {
		return
	}
	t.items[0] = c
	t.siftDown(0)
}

// sorted drains the heap best first.
func (t *topN) sorted() []candidate {
	out := make([]candidate, len(t.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = t.items[0]
		last := len(t.items) - 1
		t.items[0] = t.items[last]
		t.items = t.items[:last]
		if last > 0 {
			t.siftDown(0)
		}
	}
	return out
}

// less puts worse candidates closer to the root.
func (t *topN) less(i, j int) bool {
	return better(t.items[j], t.items[i])
}

func (t *topN) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !t.less(i, p) {
			return
		}
		t.items[i], t.items[p] = t.items[p], t.items[i]
		i = p
	}
}

func (t *topN) siftDown(i int) {
	n := len(t.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		worst := l
		if r := l + 1; r < n && t.less(r, l) {
			worst = r
		}
		if !t.less(worst, i) {
			return
		}
		t.items[i], t.items[worst] = t.items[worst], t.items[i]
		i = worst
	}
}
