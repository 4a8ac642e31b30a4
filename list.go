package pmr

import "unsafe"

// blockNode is one entry in a resource's intrusive list of live
// allocations. Nodes are allocated from the upstream resource, never
// from the instrumented resource itself, so that tracking the blocks
// never itself shows up as a tracked block. It also remembers the
// exact (address, size, alignment) the matching block was allocated
// with, so Release can return it to upstream without re-deriving
// anything from a header that a leaked block's payload may no longer
// point at validly.
type blockNode struct {
	index      int64
	blockStart unsafe.Pointer
	blockSize  uintptr
	blockAlign uintptr
	prev       *blockNode
	next       *blockNode
}

var blockNodeSize = unsafe.Sizeof(blockNode{})
var blockNodeAlign = uintptr(unsafe.Alignof(blockNode{}))

// blockList is the intrusive doubly-linked list of live blocks,
// grounded on original_source's detail::test_resource_list.
type blockList struct {
	head *blockNode
	tail *blockNode
}

func (l *blockList) empty() bool {
	return l.head == nil
}

// pushBack allocates a new node from upstream, appends it to the list,
// and returns it. Panics (via the caller's upstream error handling) if
// the upstream itself fails; list-node exhaustion is treated the same
// as any other upstream failure.
func (l *blockList) pushBack(index int64, blockStart unsafe.Pointer, blockSize, blockAlign uintptr, upstream MemoryResource) (*blockNode, error) {
	raw, err := upstream.Allocate(blockNodeSize, blockNodeAlign)
	if err != nil {
		return nil, err
	}
	node := (*blockNode)(raw)
	node.index = index
	node.blockStart = blockStart
	node.blockSize = blockSize
	node.blockAlign = blockAlign
	node.next = nil

	if l.head == nil {
		l.head = node
		l.tail = node
		node.prev = nil
	} else {
		l.tail.next = node
		node.prev = l.tail
		l.tail = node
	}
	return node, nil
}

// remove unlinks node from the list. The caller is responsible for
// returning the node's memory, and the block it describes, to the
// upstream afterward.
func (l *blockList) remove(node *blockNode) {
	if node == l.tail {
		l.tail = node.prev
	} else {
		node.next.prev = node.prev
	}
	if node == l.head {
		l.head = node.next
	} else {
		node.prev.next = node.next
	}
}

// clear unlinks every node, returns both the block it describes and
// the node itself to upstream, and leaves the list empty.
func (l *blockList) clear(upstream MemoryResource) {
	node := l.head
	for node != nil {
		next := node.next
		upstream.Deallocate(node.blockStart, node.blockSize, node.blockAlign)
		upstream.Deallocate(unsafe.Pointer(node), blockNodeSize, blockNodeAlign)
		node = next
	}
	l.head = nil
	l.tail = nil
}

// visit calls fn with the index of every live block, in list order,
// stopping after at most max indices per "line" is left to the caller
// (the reporter decides line-wrapping); visit itself just enumerates.
func (l *blockList) visit(fn func(index int64)) {
	for node := l.head; node != nil; node = node.next {
		fn(node.index)
	}
}
