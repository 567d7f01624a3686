package json

import (
	"encoding/json"
	"math"

	"github.com/pbanos/pollard/feature"
	"github.com/pbanos/pollard/tree"
)

/*
NodeEncodeDecoder is an interface for objects
that allow encoding nodes into slices of
bytes and decoding them back to nodes.
*/
type NodeEncodeDecoder interface {

	//Encode receives a *tree.Node
	// and returns a slice of bytes with the node
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(*tree.Node) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *tree.Node decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (*tree.Node, error)
}

/*
RuleEncodeDecoder is an interface for objects
that allow encoding split rules into slices of
bytes and decoding them back to split rules.
*/
type RuleEncodeDecoder interface {
	Encode(feature.SplitRule) ([]byte, error)
	Decode([]byte) (feature.SplitRule, error)
}

type nodeEncodeDecoder struct {
	RuleEncodeDecoder
}

type node struct {
	ID          int              `json:"id"`
	N           int              `json:"n"`
	Value       float64          `json:"v"`
	Deviance    float64          `json:"d"`
	Improvement float64          `json:"imp,omitempty"`
	Rule        *json.RawMessage `json:"rule,omitempty"`
}

/*
NewNodeEncodeDecoder returns a NodeEncodeDecoder that uses the
given RuleEncodeDecoder to encode/decode nodes' split rules.
A node is encoded as a JSON object with the following fields:
* "id": the ID of the node
* "n": the number of training samples on the node
* "v": the value predicted by the node
* "d": the deviance of the node
* "imp": the improvement of the node's split, if any
* "rule": the node's split rule, if any
Criteria are not encoded, as they are derived from the parent's rule
when the tree is rebuilt.
*/
func NewNodeEncodeDecoder(red RuleEncodeDecoder) NodeEncodeDecoder {
	return &nodeEncodeDecoder{red}
}

func (ned *nodeEncodeDecoder) Encode(n *tree.Node) ([]byte, error) {
	jn := &node{
		ID:          n.ID,
		N:           n.N,
		Value:       n.Value,
		Deviance:    n.Deviance,
		Improvement: n.Improvement,
	}
	if n.Rule != nil {
		r, err := ned.RuleEncodeDecoder.Encode(n.Rule)
		if err != nil {
			return nil, err
		}
		rr := json.RawMessage(r)
		jn.Rule = &rr
	}
	return json.Marshal(jn)
}

func (ned *nodeEncodeDecoder) Decode(data []byte) (*tree.Node, error) {
	jn := &node{}
	err := json.Unmarshal(data, jn)
	if err != nil {
		return nil, err
	}
	n := &tree.Node{
		ID:          jn.ID,
		N:           jn.N,
		Value:       jn.Value,
		Deviance:    math.Max(0, jn.Deviance),
		Improvement: jn.Improvement,
	}
	if jn.Rule != nil {
		n.Rule, err = ned.RuleEncodeDecoder.Decode(*jn.Rule)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}
