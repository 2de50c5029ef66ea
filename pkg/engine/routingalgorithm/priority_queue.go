package routingalgorithm

type priorityQueueNode struct {
	Rank float64
	Item int32
}

// minHeap is an indexed binary min-heap keyed by (Rank, Item). Ordering equal
// ranks by Item makes the pop order follow the authoring order of locations.
type minHeap struct {
	heap []priorityQueueNode
	pos  map[int32]int
}

func newMinHeap() *minHeap {
	return &minHeap{
		heap: make([]priorityQueueNode, 0),
		pos:  make(map[int32]int),
	}
}

func (h *minHeap) less(i, j int) bool {
	if h.heap[i].Rank != h.heap[j].Rank {
		return h.heap[i].Rank < h.heap[j].Rank
	}
	return h.heap[i].Item < h.heap[j].Item
}

func (h *minHeap) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

func parent(index int) int {
	return (index - 1) / 2
}

// heapifyUp moves index towards the root while it is smaller than its parent. O(logN).
func (h *minHeap) heapifyUp(index int) {
	for index != 0 && h.less(index, parent(index)) {
		h.swap(index, parent(index))
		index = parent(index)
	}
}

// heapifyDown moves index towards the leaves while a child is smaller. O(logN).
func (h *minHeap) heapifyDown(index int) {
	for {
		smallest := index
		left := 2*index + 1
		right := 2*index + 2
		if left < len(h.heap) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.heap) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *minHeap) Size() int {
	return len(h.heap)
}

func (h *minHeap) Contains(item int32) bool {
	_, ok := h.pos[item]
	return ok
}

func (h *minHeap) Insert(node priorityQueueNode) {
	h.heap = append(h.heap, node)
	index := len(h.heap) - 1
	h.pos[node.Item] = index
	h.heapifyUp(index)
}

// ExtractMin pops the smallest node. The caller must check Size first.
func (h *minHeap) ExtractMin() priorityQueueNode {
	root := h.heap[0]
	last := len(h.heap) - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.Item)
	if len(h.heap) > 0 {
		h.heapifyDown(0)
	}
	return root
}

// DecreaseKey lowers the rank of an item already in the heap.
func (h *minHeap) DecreaseKey(node priorityQueueNode) {
	i, ok := h.pos[node.Item]
	if !ok || node.Rank > h.heap[i].Rank {
		return
	}
	h.heap[i] = node
	h.heapifyUp(i)
}

// Upsert inserts node or lowers its rank if it is already queued.
func (h *minHeap) Upsert(node priorityQueueNode) {
	if h.Contains(node.Item) {
		h.DecreaseKey(node)
		return
	}
	h.Insert(node)
}
