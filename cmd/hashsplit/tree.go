package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/crypto"
	"github.com/hoangsonww/hashsplit/internal/tree"
)

type treeNode struct {
	Level    uint32        `json:"level"`
	Size     int64         `json:"size"`
	Children []*treeNode   `json:"children,omitempty"`
	Chunks   []chunkRecord `json:"chunks,omitempty"`
}

type treeReport struct {
	Name   string        `json:"name"`
	Engine string        `json:"engine"`
	Digest crypto.Digest `json:"digest"`
	Height int           `json:"height"`
	Root   *treeNode     `json:"root"`
}

func newTreeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Group the chunks of an input into a tree by boundary level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rep treeReport
			err := a.forEachFile(cmd.Context(), args, func(ctx context.Context, _ int, in *input) error {
				b := tree.NewBuilder[any](a.cfg.TreeThresholds...)
				if err := a.eachChunk(ctx, in, false, func(c chunk.Resumable[any]) error {
					b.Add(c)
					return nil
				}); err != nil {
					return err
				}
				t := b.Finish()
				rep = treeReport{
					Name:   in.name,
					Engine: a.engine.String(),
					Digest: in.Digest(),
					Height: t.Height(),
					Root:   a.convertNode(t.Root),
				}
				return nil
			})
			if err != nil {
				return err
			}

			if a.jsonOutput() {
				return a.emitJSON(rep)
			}
			return a.emitText(func(w io.Writer) {
				fmt.Fprintf(w, "# %s\t%s\theight %d\t%s\n", rep.Name, rep.Engine, rep.Height, rep.Digest)
				printNode(w, rep.Root, 0)
			})
		},
	}
}

func (a *app) convertNode(n *tree.Node[any]) *treeNode {
	out := &treeNode{Level: n.Level, Size: n.Size()}
	for _, child := range n.Children {
		out.Children = append(out.Children, a.convertNode(child))
	}
	for _, c := range n.Chunks {
		out.Chunks = append(out.Chunks, record(c, a.cfg.Output.Digests))
	}
	return out
}

func printNode(w io.Writer, n *treeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%snode level=%d size=%s\n", indent, n.Level, humanize.IBytes(uint64(n.Size)))
	for _, child := range n.Children {
		printNode(w, child, depth+1)
	}
	for _, rec := range n.Chunks {
		formatRecord(w, indent+"  ", rec)
	}
}
