package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/crypto"
	hserrors "github.com/hoangsonww/hashsplit/internal/errors"
	"github.com/hoangsonww/hashsplit/internal/verification"
)

func newVerifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify MANIFEST FILE",
		Short: "Re-split FILE and compare it with a manifest written by split --format json",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest(args[0], args[1])
			if err != nil {
				return err
			}

			var actual []verification.Chunk
			err = a.forEachFile(cmd.Context(), args[1:], func(ctx context.Context, _ int, in *input) error {
				return a.eachChunk(ctx, in, false, func(c chunk.Resumable[any]) error {
					actual = append(actual, verification.Chunk{
						Offset: c.Offset,
						Length: c.Len(),
						Digest: crypto.Hash(c.Data),
					})
					return nil
				})
			})
			if err != nil {
				return err
			}

			result := verification.NewVerifier(a.log).Verify(manifest, actual)
			if a.jsonOutput() {
				err = a.emitJSON(result)
			} else {
				err = a.emitText(func(w io.Writer) {
					fmt.Fprintf(w, "chunks\t%d\nverified\t%d\nmoved\t%d\nmissing\t%d\nadded\t%d\n",
						result.TotalChunks, result.VerifiedChunks, result.MovedChunks,
						len(result.MissingChunks), len(result.AddedChunks))
					for _, c := range result.MissingChunks {
						fmt.Fprintf(w, "- %d\t%d\t%s\n", c.Offset, c.Length, c.Digest)
					}
					for _, c := range result.AddedChunks {
						fmt.Fprintf(w, "+ %d\t%d\t%s\n", c.Offset, c.Length, c.Digest)
					}
				})
			}
			if err != nil {
				return err
			}

			if !result.Success {
				return hserrors.NewError(hserrors.ErrCodeVerificationFailed,
					fmt.Sprintf("%s does not match %s", args[1], args[0]))
			}
			return nil
		},
	}
}

// loadManifest picks the report for name, or the only report in the file
func loadManifest(path, name string) ([]verification.Chunk, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, hserrors.NewInputUnreadableError(path, err)
	}
	var reports []fileReport
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, hserrors.NewInputCorruptedError(path, err)
	}

	var rep *fileReport
	for i := range reports {
		if reports[i].Name == name || len(reports) == 1 {
			rep = &reports[i]
			break
		}
	}
	if rep == nil {
		return nil, hserrors.NewInputCorruptedError(path, fmt.Errorf("no entry for %s", name))
	}

	chunks := make([]verification.Chunk, 0, len(rep.Chunks))
	for _, rec := range rep.Chunks {
		if rec.Digest == nil {
			return nil, hserrors.NewInputCorruptedError(path, fmt.Errorf("chunk at %d has no digest", rec.Offset))
		}
		chunks = append(chunks, verification.Chunk{Offset: rec.Offset, Length: rec.Length, Digest: *rec.Digest})
	}
	return chunks, nil
}
