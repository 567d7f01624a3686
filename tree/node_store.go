package tree

import (
	"context"
	"fmt"
	"sync"

	"github.com/pbanos/pollard/feature"
)

/*
NodeStore is an interface to manage a store
where nodes can be saved, retrieved and deleted
by their ID.

All it methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type NodeStore interface {
	// Store takes a node and saves it on the store
	// under its ID, replacing any node previously
	// stored with that ID. It returns an error if
	// the node cannot be stored.
	Store(ctx context.Context, n *Node) error
	// Get takes an id and returns the node in the
	// store with that id (or nil if it cannot be
	// found) or an error if the store cannot be
	// queried
	Get(ctx context.Context, id int) (*Node, error)
	// Delete takes an id and deletes the node stored
	// with it. It returns an error if the node exists
	// but the deletion cannot be performed.
	Delete(ctx context.Context, id int) error
	// Close closes the store, implementations should
	// freeing any resources in use as well as ensure
	// any pending changes are applied before returning
	// (unless the context expires). It returns an error
	// if the Close cannot be completed (because of the
	// context or another error)
	Close(ctx context.Context) error
}

type memoryNodeStore struct {
	nodes map[int]*Node
	lock  *sync.RWMutex
}

// NewMemoryNodeStore returns an implementation
// of NodeStore with the process memory space
// as underlying backend
func NewMemoryNodeStore() NodeStore {
	return &memoryNodeStore{
		nodes: make(map[int]*Node),
		lock:  &sync.RWMutex{},
	}
}

func (mns *memoryNodeStore) Store(ctx context.Context, n *Node) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		mns.nodes[n.ID] = n
		return nil
	})
}

func (mns *memoryNodeStore) Get(ctx context.Context, id int) (*Node, error) {
	var n *Node
	err := mns.withRLock(ctx, func(ctx context.Context) error {
		n = mns.nodes[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (mns *memoryNodeStore) Delete(ctx context.Context, id int) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		delete(mns.nodes, id)
		return nil
	})
}

func (mns *memoryNodeStore) Close(ctx context.Context) error {
	return nil
}

func (mns *memoryNodeStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mns.lock.Lock()
		select {
		case <-ctx.Done():
			mns.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mns.lock.Unlock()
	}
	return f(ctx)
}

func (mns *memoryNodeStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mns.lock.RLock()
		select {
		case <-ctx.Done():
			mns.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mns.lock.RUnlock()
	}
	return f(ctx)
}

// Save stores every node of the tree on the given store.
func Save(ctx context.Context, t *Tree, ns NodeStore) error {
	return t.Traverse(ctx, false, func(ctx context.Context, n *Node) error {
		return ns.Store(ctx, n)
	})
}

/*
Load takes a context, a node store and a label feature and rebuilds the
tree whose root is stored with RootID, following the children of every node
with a rule. Nodes stored under other IDs are ignored. An error is returned
if a node is missing or the store cannot be queried.
*/
func Load(ctx context.Context, ns NodeStore, label feature.Feature) (*Tree, error) {
	var nodes []*Node
	pending := []int{RootID}
	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]
		n, err := ns.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("retrieving node %d: %w", id, err)
		}
		if n == nil {
			if id == RootID {
				return nil, ErrEmptyTree
			}
			return nil, fmt.Errorf("node %d not found on store", id)
		}
		nodes = append(nodes, n)
		if !n.IsLeaf() {
			pending = append(pending, LeftID(id), RightID(id))
		}
	}
	t, err := New(label, nodes)
	if err != nil {
		return nil, err
	}
	t.Missing = MajorityBranch
	return t, nil
}
