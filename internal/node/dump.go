package node

import (
	"fmt"
	"io"
	"strings"

	"irlower/internal/frame"
)

func slotNames(slots []*frame.Slot) string {
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.Name
	}
	return strings.Join(names, " ")
}

// Dump writes a summary of the lowered graph of c.
func Dump(w io.Writer, c *Callable) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "callable @%s: %d slots, %d prologue nodes\n", c.Label, c.Layout.Len(), len(c.Prologue))
	for _, s := range c.Layout.Slots() {
		fmt.Fprintf(&sb, "  slot %s\n", s)
	}
	for _, bb := range c.Body.Blocks {
		fmt.Fprintf(&sb, "  block %d %%%s: %d nodes, %T", bb.Index, bb.Name, len(bb.Stmts), bb.Term)
		if len(bb.NullBefore) > 0 {
			fmt.Fprintf(&sb, " clear-before[%s]", slotNames(bb.NullBefore))
		}
		if len(bb.NullAfter) > 0 {
			fmt.Fprintf(&sb, " clear-after[%s]", slotNames(bb.NullAfter))
		}
		if br, ok := bb.Term.(*CondBr); ok && br.Profile != nil {
			fmt.Fprintf(&sb, " taken=%d not-taken=%d", br.Profile.Taken.Load(), br.Profile.NotTaken.Load())
		}
		sb.WriteString("\n")
	}
	for _, l := range c.Body.Loops {
		fmt.Fprintf(&sb, "  loop header=%d body=%v\n", l.Header, l.Body)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
