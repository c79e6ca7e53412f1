package store

import "sort"

// Trie indexes the live key set for prefix queries. Each node counts the
// keys passing through or ending at it, so a removal can prune dead
// branches bottom-up as soon as a count reaches zero.
type Trie struct {
	root *trieNode
}

type trieNode struct {
	terminal bool
	count    int
	children map[rune]*trieNode
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

// Insert walks one node per character of key, creating nodes as needed and
// incrementing every count on the path. The final node is marked terminal.
func (t *Trie) Insert(key string) {
	cur := t.root
	for _, r := range key {
		child, ok := cur.children[r]
		if !ok {
			child = newTrieNode()
			cur.children[r] = child
		}
		child.count++
		cur = child
	}
	cur.terminal = true
}

// Remove undoes one Insert of key. A key whose path is absent is a harmless
// no-op. Counts are decremented along the whole path and any node left at
// zero is pruned from its parent, leaf first.
func (t *Trie) Remove(key string) {
	runes := []rune(key)
	path := make([]*trieNode, 0, len(runes)+1)
	path = append(path, t.root)
	cur := t.root
	for _, r := range runes {
		child, ok := cur.children[r]
		if !ok {
			return
		}
		path = append(path, child)
		cur = child
	}
	cur.terminal = false
	for i := len(runes); i >= 1; i-- {
		node := path[i]
		node.count--
		if node.count <= 0 {
			delete(path[i-1].children, runes[i-1])
		}
	}
}

// KeysWithPrefix descends along prefix and reports the next-character
// continuations available at that node, one single-character string per
// matching key path. It deliberately does not expand full keys.
func (t *Trie) KeysWithPrefix(prefix string) []string {
	cur := t.root
	for _, r := range prefix {
		child, ok := cur.children[r]
		if !ok {
			return nil
		}
		cur = child
	}
	out := make([]string, 0, len(cur.children))
	for r := range cur.children {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}
