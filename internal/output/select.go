package output

import (
	"fmt"

	"github.com/rbright/assist/internal/transcript"
)

// SelectEntry picks the entry to export. index is 1-based; zero selects the
// latest bot reply.
func SelectEntry(entries []transcript.Entry, index int) (transcript.Entry, error) {
	if index < 0 || index > len(entries) {
		return transcript.Entry{}, fmt.Errorf("entry %d out of range 1..%d", index, len(entries))
	}
	if index > 0 {
		return entries[index-1], nil
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == transcript.BotReply {
			return entries[i], nil
		}
	}
	return transcript.Entry{}, fmt.Errorf("transcript has no bot reply yet")
}
