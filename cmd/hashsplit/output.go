package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	hserrors "github.com/hoangsonww/hashsplit/internal/errors"
)

func (a *app) jsonOutput() bool {
	return a.cfg.Output.Format == "json"
}

// emitJSON writes v as indented JSON
func (a *app) emitJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return hserrors.NewOutputFailedError(err)
	}
	return nil
}

// emitText buffers the text written by fn and flushes it once
func (a *app) emitText(fn func(w io.Writer)) error {
	w := bufio.NewWriter(a.out)
	fn(w)
	if err := w.Flush(); err != nil {
		return hserrors.NewOutputFailedError(err)
	}
	return nil
}

func formatRecord(w io.Writer, indent string, rec chunkRecord) {
	fmt.Fprintf(w, "%s%d\t%d\t%s\t%d", indent, rec.Offset, rec.Length, rec.Kind, rec.Level)
	if rec.Digest != nil {
		fmt.Fprintf(w, "\t%s", rec.Digest)
	}
	fmt.Fprintln(w)
}
