package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbanos/pollard/feature"

	"github.com/pbanos/pollard/tree"
)

/*
WriteJSONTree takes a context.Context, a pointer to a tree.Tree
a NodeEncodeDecoder and an io.Writer and serializes the given tree
as JSON onto the io.Writer.
A tree is serialized as a JSON object with the following fields:
* "label": a string with the name of the feature the tree predicts
* "nodes": an array containing the nodes of the tree in preorder
  serialized by the given NodeEncodeDecoder.
An error is returned if the tree cannot be traversed, serialized or written
onto the io.Writer.
*/
func WriteJSONTree(ctx context.Context, t *tree.Tree, ned NodeEncodeDecoder, w io.Writer) error {
	err := marshalJSONTreeHeader(t, w)
	if err != nil {
		return err
	}
	var i int
	err = t.Traverse(ctx, false, func(ctx context.Context, n *tree.Node) error {
		err := writeNode(i, n, ned, w)
		i++
		return err
	})
	if err != nil {
		return err
	}
	return marshalJSONTreeFooter(w)
}

/*
ReadJSONTree takes a context.Context, a NodeEncodeDecoder, a slice of
features and an io.Reader and returns the tree serialized on the contents
of the io.Reader, as written by WriteJSONTree.
The returned tree sends samples lacking a split value to the majority
branch.
An error is returned if the JSON cannot be read from the io.Reader, the
label is not among the features or the nodes do not make a tree.
*/
func ReadJSONTree(ctx context.Context, ned NodeEncodeDecoder, features []feature.Feature, r io.Reader) (*tree.Tree, error) {
	dec := json.NewDecoder(r)
	jt := &struct {
		Label string             `json:"label"`
		Nodes []*json.RawMessage `json:"nodes"`
	}{}
	err := dec.Decode(jt)
	if err != nil {
		return nil, err
	}
	label := feature.Find(features, jt.Label)
	if label == nil {
		return nil, fmt.Errorf("label feature %q is not defined", jt.Label)
	}
	nodes := make([]*tree.Node, 0, len(jt.Nodes))
	for _, jn := range jt.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := ned.Decode(*jn)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	t, err := tree.New(label, nodes)
	if err != nil {
		return nil, err
	}
	t.Missing = tree.MajorityBranch
	return t, nil
}

func marshalJSONTreeHeader(t *tree.Tree, w io.Writer) error {
	jFeatureName, err := json.Marshal(t.Label.Name())
	if err != nil {
		return err
	}
	header := fmt.Sprintf(`{"label":%s,"nodes":[`, jFeatureName)
	_, err = w.Write([]byte(header))
	return err
}

func writeNode(i int, n *tree.Node, ned NodeEncodeDecoder, w io.Writer) error {
	if i != 0 {
		_, err := w.Write([]byte(","))
		if err != nil {
			return err
		}
	}
	jn, err := ned.Encode(n)
	if err != nil {
		return err
	}
	_, err = w.Write(jn)
	return err
}

func marshalJSONTreeFooter(w io.Writer) error {
	_, err := w.Write([]byte(`]}`))
	return err
}
