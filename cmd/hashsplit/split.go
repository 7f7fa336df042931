package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/crypto"
)

type fileReport struct {
	Name   string        `json:"name"`
	Size   int64         `json:"size"`
	Digest crypto.Digest `json:"digest"`
	Chunks []chunkRecord `json:"chunks"`
}

func newSplitCommand(a *app) *cobra.Command {
	var extents, inMemory bool

	cmd := &cobra.Command{
		Use:   "split FILE...",
		Short: "List the chunks of each input (- reads stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := make([]fileReport, len(args))
			withDigest := a.cfg.Output.Digests && !extents

			err := a.forEachFile(cmd.Context(), args, func(ctx context.Context, i int, in *input) error {
				rep := &reports[i]
				rep.Name = in.name
				rep.Chunks = []chunkRecord{}

				var err error
				if extents {
					err = a.eachExtent(ctx, in, func(rec chunkRecord) error {
						rep.Chunks = append(rep.Chunks, rec)
						return nil
					})
				} else {
					err = a.eachChunk(ctx, in, inMemory, func(c chunk.Resumable[any]) error {
						rep.Chunks = append(rep.Chunks, record(c, withDigest))
						return nil
					})
				}
				if err != nil {
					return err
				}
				rep.Size = in.size
				rep.Digest = in.Digest()
				return nil
			})
			if err != nil {
				return err
			}

			a.log.WithFields(map[string]interface{}{
				"files":  a.metrics.FilesProcessed.Load(),
				"chunks": a.metrics.Chunks.Load(),
				"bytes":  a.metrics.BytesProcessed.Load(),
			}).Info("split complete")

			if a.jsonOutput() {
				return a.emitJSON(reports)
			}
			return a.emitText(func(w io.Writer) {
				for _, rep := range reports {
					fmt.Fprintf(w, "# %s\t%d bytes\t%d chunks\t%s\n", rep.Name, rep.Size, len(rep.Chunks), rep.Digest)
					for _, rec := range rep.Chunks {
						formatRecord(w, "", rec)
					}
				}
			})
		},
	}

	cmd.Flags().BoolVar(&extents, "extents", false, "report cut points only, without buffering chunk bytes")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "read each input fully and split without copying")
	return cmd
}
