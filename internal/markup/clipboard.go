package markup

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// CopyBlock writes the body of the n-th code block (0-based) to the system
// clipboard. Open fences are copyable too; the caller gets whatever has
// streamed so far.
func CopyBlock(doc Document, n int) error {
	blocks := doc.CodeBlocks()
	if n < 0 || n >= len(blocks) {
		return fmt.Errorf("no code block %d (document has %d)", n, len(blocks))
	}
	if err := clipboard.WriteAll(blocks[n].Body); err != nil {
		return fmt.Errorf("failed to copy code block: %w", err)
	}
	return nil
}
