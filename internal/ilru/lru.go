// Package ilru provides a generic least-recently-used cache. No other
// package in this module imports it; the descriptor cache is built on
// groupcache's LRU instead.
package ilru

import "fmt"

// Cache implements an LRU cache with a fixed maximum size.
type Cache[K comparable, V any] struct {
	m       map[K]*node[K, V]
	l       *list[K, V]
	maxSize int
}

type entry[K, V any] struct {
	k K
	v V
}

// New creates a Cache that holds at most size entries.
func New[K comparable, V any](size int) *Cache[K, V] {
	return &Cache[K, V]{
		m:       make(map[K]*node[K, V], size+1),
		l:       new(list[K, V]),
		maxSize: size,
	}
}

// Add inserts an element, evicting the least-recently-used entry if the
// cache is full. If the key is already present its value is updated and it
// moves to the front.
func (c *Cache[K, V]) Add(k K, v V) {
	if n, ok := c.m[k]; ok {
		n.value.v = v
		c.l.moveToFront(n)
		return
	}
	if len(c.m) < c.maxSize {
		c.m[k] = c.l.push(entry[K, V]{k: k, v: v})
		return
	}
	n := c.l.tail
	delete(c.m, n.value.k)
	n.value.k = k
	n.value.v = v
	c.m[k] = n
	c.l.moveToFront(n)
}

// Get returns the value for k and whether it was found, moving it to the
// front of the eviction order on a hit.
func (c *Cache[K, V]) Get(k K) (v V, ok bool) {
	n, ok := c.m[k]
	if !ok {
		return v, false
	}
	c.l.moveToFront(n)
	return n.value.v, true
}

// Remove deletes k from the cache, if present.
func (c *Cache[K, V]) Remove(k K) {
	n, ok := c.m[k]
	if !ok {
		return
	}
	c.l.unlink(n)
	delete(c.m, k)
}

// Len reports the number of entries currently cached.
func (c *Cache[K, V]) Len() int { return len(c.m) }

type list[K comparable, V any] struct {
	head, tail *node[K, V]
}

type node[K comparable, V any] struct {
	value      entry[K, V]
	prev, next *node[K, V]
}

func (l *list[K, V]) push(v entry[K, V]) *node[K, V] {
	n := &node[K, V]{value: v, next: l.head}
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	return l.head
}

func (l *list[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (l *list[K, V]) moveToFront(n *node[K, V]) {
	if n == l.head {
		return
	}
	if n == l.tail {
		l.tail = n.prev
	}
	n.prev.next = n.next
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *list[K, V]) String() string {
	var vals []string
	for n := l.head; n != nil; n = n.next {
		vals = append(vals, fmt.Sprint(n.value.v))
	}
	return fmt.Sprint(vals)
}
