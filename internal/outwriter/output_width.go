package outwriter

import (
	"os"

	"github.com/huangsam/gitfixes/internal/contract"
	"golang.org/x/term"
)

// minSubjectWidth keeps truncated subjects readable on narrow terminals.
const minSubjectWidth = 20

// getMaxSubjectWidth returns how many characters of a subject fit on one
// line after a prefix of prefixWidth characters. Zero means no truncation,
// which is the case for files and pipes unless --width is given.
func getMaxSubjectWidth(cfg *contract.Config, prefixWidth int) int {
	termWidth := cfg.Width
	if termWidth == 0 {
		if cfg.OutputFile != "" {
			return 0
		}
		fd := int(os.Stdout.Fd())
		if !term.IsTerminal(fd) {
			return 0
		}
		detectedWidth, _, err := term.GetSize(fd)
		if err != nil || detectedWidth <= 0 {
			return 0
		}
		termWidth = detectedWidth
	}
	return max(termWidth-prefixWidth, minSubjectWidth)
}
