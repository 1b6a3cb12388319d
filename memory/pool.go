package memory

// pool is a min-heap of reclaimed handles.
type pool []uint32

func (p pool) Len() int           { return len(p) }
func (p pool) Less(i, j int) bool { return p[i] < p[j] }
func (p pool) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

func (p *pool) Push(x any) {
	*p = append(*p, x.(uint32))
}

func (p *pool) Pop() any {
	old := *p
	n := len(old)
	handle := old[n-1]
	*p = old[:n-1]
	return handle
}
