package searcher

// Edges are handed out in chunks, a node gets the smallest number of chunks
// holding all of its edges. Chunks and node slots live in fixed size blocks
// so a node never moves once allocated.
const (
	ChunkEdges  = 4
	BlockChunks = 4096
	blockEdges  = BlockChunks * ChunkEdges
	blockNodes  = 1024
)

type edgeBlock [blockEdges]moveEdge
type nodeBlock [blockNodes]stateNode

type PoolStats struct {
	LiveNodes  int
	LiveChunks int
	PeakChunks int
}

type Pool struct {
	nodeBlocks []*nodeBlock
	edgeBlocks []*edgeBlock
	nextSlot   Handle
	freeSlots  []Handle
	freeChunks map[int][]int // chunk count -> first edge
	tail       int           // first chunk never handed out
	stats      PoolStats
}

func NewPool() *Pool {
	return &Pool{
		nextSlot:   1,
		freeChunks: map[int][]int{},
	}
}

func chunksFor(moveCount int) int {
	if moveCount <= 0 {
		return 1
	}
	return (moveCount + ChunkEdges - 1) / ChunkEdges
}

// Allocate returns a zeroed transient node with room for moveCount edges.
func (p *Pool) Allocate(moveCount int) (Handle, error) {
	chunks := chunksFor(moveCount)
	if chunks > BlockChunks {
		return nilHandle, fault("allocate", nilHandle, "%d moves do not fit a block", moveCount)
	}

	var first int
	if offsets := p.freeChunks[chunks]; len(offsets) > 0 {
		first = offsets[len(offsets)-1]
		p.freeChunks[chunks] = offsets[:len(offsets)-1]
	} else {
		if p.tail%BlockChunks+chunks > BlockChunks {
			p.tail += BlockChunks - p.tail%BlockChunks
		}
		for p.tail/BlockChunks >= len(p.edgeBlocks) {
			p.edgeBlocks = append(p.edgeBlocks, new(edgeBlock))
		}
		first = p.tail * ChunkEdges
		p.tail += chunks
	}
	block := p.edgeBlocks[first/blockEdges]
	offset := first % blockEdges
	clear(block[offset : offset+chunks*ChunkEdges])

	var h Handle
	if n := len(p.freeSlots); n > 0 {
		h = p.freeSlots[n-1]
		p.freeSlots = p.freeSlots[:n-1]
	} else {
		h = p.nextSlot
		p.nextSlot++
		if int(h)/blockNodes >= len(p.nodeBlocks) {
			p.nodeBlocks = append(p.nodeBlocks, new(nodeBlock))
		}
	}
	*p.node(h) = stateNode{status: transient, moveCount: moveCount, chunks: chunks, first: first}

	p.stats.LiveNodes++
	p.stats.LiveChunks += chunks
	p.stats.PeakChunks = max(p.stats.PeakChunks, p.stats.LiveChunks)
	return h, nil
}

// Free returns the chunks of h. moveCount must be the count h was allocated
// with.
func (p *Pool) Free(h Handle, moveCount int) error {
	if h == nilHandle || h >= p.nextSlot {
		return fault("free", h, "handle out of range")
	}
	n := p.node(h)
	if n.status == freed {
		return fault("free", h, "node freed twice")
	}
	if chunks := chunksFor(moveCount); chunks != n.chunks || moveCount != n.moveCount {
		return fault("free", h, "freeing %d chunks of a node allocated with %d", chunks, n.chunks)
	}

	p.freeChunks[n.chunks] = append(p.freeChunks[n.chunks], n.first)
	p.freeSlots = append(p.freeSlots, h)
	p.stats.LiveNodes--
	p.stats.LiveChunks -= n.chunks
	*n = stateNode{}
	return nil
}

// FreeAll drops every node at once. Used to recover from leaks, the pool
// stays usable.
func (p *Pool) FreeAll() {
	for _, block := range p.nodeBlocks {
		clear(block[:])
	}
	p.nextSlot = 1
	p.freeSlots = p.freeSlots[:0]
	clear(p.freeChunks)
	p.tail = 0
	p.stats.LiveNodes = 0
	p.stats.LiveChunks = 0
}

func (p *Pool) Stats() PoolStats {
	return p.stats
}

// ResetStats restarts peak tracking from the current usage.
func (p *Pool) ResetStats() {
	p.stats.PeakChunks = p.stats.LiveChunks
}

func (p *Pool) node(h Handle) *stateNode {
	return &p.nodeBlocks[int(h)/blockNodes][int(h)%blockNodes]
}

func (p *Pool) edges(n *stateNode) []moveEdge {
	block := p.edgeBlocks[n.first/blockEdges]
	offset := n.first % blockEdges
	return block[offset : offset+n.moveCount]
}

// occupied tells whether h refers to a live node.
func (p *Pool) occupied(h Handle) bool {
	return h != nilHandle && h < p.nextSlot && p.node(h).status != freed
}

func (p *Pool) clearStamps() {
	for h := Handle(1); h < p.nextSlot; h++ {
		p.node(h).lastVisit = 0
	}
}
