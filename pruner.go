package pollard

import (
	"context"

	"github.com/pbanos/pollard/dataset"
)

/*
Pruner is an interface wrapping the Prune method, that can be used
to decide whether a partition is good enough to become part of a tree
while growing it or if it must be rejected instead, leaving its node as
a leaf.

The Prune method takes a context, the frame the tree is grown from, a
partition and the deviance of the root of the tree and returns a boolean:
true to indicate the partition must be rejected, false to allow its adding
to the tree and further development.
*/
type Pruner interface {
	Prune(ctx context.Context, fr *dataset.Frame, p *Partition, rootDeviance float64) (bool, error)
}

/*
PrunerFunc wraps a function with the Prune method signature to implement
the Pruner interface
*/
type PrunerFunc func(ctx context.Context, fr *dataset.Frame, p *Partition, rootDeviance float64) (bool, error)

/*
Prune takes a context.Context, a frame, a partition and the root deviance
and invokes the PrunerFunc with those parameters to return its boolean result.
*/
func (pf PrunerFunc) Prune(ctx context.Context, fr *dataset.Frame, p *Partition, rootDeviance float64) (bool, error) {
	return pf(ctx, fr, p, rootDeviance)
}

/*
RelativeImprovementPruner takes a complexity parameter cp and returns a
Pruner that rejects partitions whose improvement relative to the deviance
of the root is below cp.
*/
func RelativeImprovementPruner(cp float64) Pruner {
	return PrunerFunc(func(ctx context.Context, fr *dataset.Frame, p *Partition, rootDeviance float64) (bool, error) {
		if rootDeviance <= 0 {
			return true, nil
		}
		return p.Improvement/rootDeviance < cp, nil
	})
}

/*
FixedImprovementPruner takes an improvementThreshold float64 value
and returns a Pruner whose Prune method returns whether the improvementThreshold
is greater or equal to the received partition's improvement
*/
func FixedImprovementPruner(improvementThreshold float64) Pruner {
	return PrunerFunc(func(ctx context.Context, fr *dataset.Frame, p *Partition, rootDeviance float64) (bool, error) {
		return improvementThreshold >= p.Improvement, nil
	})
}

/*
NoPruner returns a Pruner whose Prune method always returns false, that is,
never rejects a partition and leaves the decision to the weakest-link
pruning done after growing.
*/
func NoPruner() Pruner {
	return PrunerFunc(func(ctx context.Context, fr *dataset.Frame, p *Partition, rootDeviance float64) (bool, error) {
		return false, nil
	})
}
