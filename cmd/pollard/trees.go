package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/pollard/feature"
	featurejson "github.com/pbanos/pollard/feature/json"
	"github.com/pbanos/pollard/tree"
	"github.com/pbanos/pollard/tree/json"
	"github.com/pbanos/pollard/tree/redisstore"
	"github.com/spf13/cobra"
	"gopkg.in/redis.v5"
)

// treeInput holds the flags locating a tree: a JSON file or the nodes
// stored on a redis DB.
type treeInput struct {
	path        string
	redisURL    string
	redisPrefix   string
	label         string
	failOnMissing bool
}

// treeOutput holds the flags telling where to put a tree.
type treeOutput struct {
	path        string
	redisURL    string
	redisPrefix string
}

// addFlags defines the flags on the command, also for its subcommands
// when persistent is set.
func (ti *treeInput) addFlags(cmd *cobra.Command, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	flags.StringVarP(&(ti.path), "tree", "t", "", "path to a file from which the tree will be read and parsed as JSON")
	flags.StringVar(&(ti.redisURL), "tree-redis", "", "redis URL (redis://host:port/db) of a DB storing the nodes of the tree, used instead of a JSON file")
	flags.StringVar(&(ti.redisPrefix), "tree-redis-prefix", "pollard", "prefix of the keys of the nodes of the tree on the redis DB")
	flags.StringVarP(&(ti.label), "label", "l", "", "name of the feature predicted by the tree stored on redis")
}

// addMissingFlag defines the flag choosing how the tree handles samples
// lacking the value of a split feature.
func (ti *treeInput) addMissingFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&(ti.failOnMissing), "fail-on-missing", false, "fail predictions for samples lacking the value of a split feature instead of following the majority branch")
}

func (ti *treeInput) Validate() error {
	if ti.path == "" && ti.redisURL == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	if ti.path != "" && ti.redisURL != "" {
		return fmt.Errorf("cannot set both tree and tree-redis flags at the same time")
	}
	if ti.redisURL != "" && ti.label == "" {
		return fmt.Errorf("label flag is required when reading a tree from redis")
	}
	return nil
}

// load reads the tree and applies the missing value policy chosen on the
// flags.
func (ti *treeInput) load(ctx context.Context, features []feature.Feature) (*tree.Tree, error) {
	t, err := ti.read(ctx, features)
	if err != nil {
		return nil, err
	}
	if ti.failOnMissing {
		t.Missing = tree.FailOnMissing
	}
	return t, nil
}

func (ti *treeInput) read(ctx context.Context, features []feature.Feature) (*tree.Tree, error) {
	ned := json.NewNodeEncodeDecoder(featurejson.NewRuleEncodeDecoder(features))
	if ti.redisURL != "" {
		label := feature.Find(features, ti.label)
		if label == nil {
			return nil, fmt.Errorf("label feature '%s' is not defined", ti.label)
		}
		rc, err := redisClient(ti.redisURL)
		if err != nil {
			return nil, err
		}
		ns := redisstore.New(rc, ti.redisPrefix, ned)
		defer ns.Close(ctx)
		t, err := tree.Load(ctx, ns, label)
		if err != nil {
			return nil, fmt.Errorf("loading tree from redis at %s: %w", ti.redisURL, err)
		}
		return t, nil
	}
	f, err := os.Open(ti.path)
	if err != nil {
		return nil, fmt.Errorf("reading tree in JSON from %s: %v", ti.path, err)
	}
	defer f.Close()
	t, err := json.ReadJSONTree(ctx, ned, features, f)
	if err != nil {
		return nil, fmt.Errorf("parsing tree in JSON from %s: %w", ti.path, err)
	}
	return t, nil
}

func (to *treeOutput) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&(to.path), "output", "o", "", "path to a file to which the tree will be written in JSON format (defaults to STDOUT)")
	cmd.Flags().StringVar(&(to.redisURL), "redis", "", "redis URL (redis://host:port/db) of a DB on which to store the nodes of the tree")
	cmd.Flags().StringVar(&(to.redisPrefix), "redis-prefix", "pollard", "prefix of the keys of the nodes of the tree on the redis DB")
}

// write outputs the tree as JSON and stores its nodes on redis when a URL
// was given. The returned exit code tells which of them failed.
func (to *treeOutput) write(ctx context.Context, t *tree.Tree, features []feature.Feature) (int, error) {
	ned := json.NewNodeEncodeDecoder(featurejson.NewRuleEncodeDecoder(features))
	f := os.Stdout
	if to.path != "" {
		var err error
		f, err = os.Create(to.path)
		if err != nil {
			return exitOutput, err
		}
		defer f.Close()
	}
	err := json.WriteJSONTree(ctx, t, ned, f)
	if err != nil {
		return exitOutput, fmt.Errorf("writing tree in JSON: %v", err)
	}
	if to.path == "" {
		fmt.Println()
	}
	if to.redisURL == "" {
		return 0, nil
	}
	rc, err := redisClient(to.redisURL)
	if err != nil {
		return exitTreeStore, err
	}
	ns := redisstore.New(rc, to.redisPrefix, ned)
	defer ns.Close(ctx)
	if err = tree.Save(ctx, t, ns); err != nil {
		return exitTreeStore, fmt.Errorf("storing tree on redis at %s: %v", to.redisURL, err)
	}
	return 0, nil
}

func redisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL %s: %v", url, err)
	}
	return redis.NewClient(opts), nil
}
