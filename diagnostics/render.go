package diagnostics

import (
	"fmt"
	"io"
)

// WriterSink renders every diagnostic to an io.Writer as it arrives,
// one clause per line, with a caret band under any highlighted excerpt
// range. This is the default presentation mentioned in the spec; a host
// program is free to render diagnostics however it likes instead.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Emit(d Diagnostic) {
	for _, c := range d.Clauses {
		fmt.Fprintf(s.W, "%s: %s: %s\n", c.FileName, c.Tag, c.Message)
		if c.Excerpt != nil {
			fmt.Fprintf(s.W, "%5d | %s\n", c.Excerpt.LineNumber, c.Excerpt.SourceLine)
			if c.Excerpt.HasHighlight {
				pad := make([]byte, c.Excerpt.HighlightFrom)
				for i := range pad {
					pad[i] = ' '
				}
				width := c.Excerpt.HighlightTo - c.Excerpt.HighlightFrom
				if width < 1 {
					width = 1
				}
				caret := make([]byte, width)
				for i := range caret {
					caret[i] = '~'
				}
				fmt.Fprintf(s.W, "      | %s%s\n", pad, caret)
			}
		}
	}
}
