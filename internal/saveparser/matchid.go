package saveparser

import (
	"path/filepath"
	"regexp"
	"strconv"
)

// Tournament exports name save files match_<digits>_<participants>.<ext>;
// the digits are the external (Challonge) match id.
var externalIDPattern = regexp.MustCompile(`match_(\d+)_`)

// ExternalMatchID extracts the external tournament match id from a save file
// name. Returns 0 when the name does not follow the convention; a malformed
// name is never an error.
func ExternalMatchID(filename string) int64 {
	base := filepath.Base(filename)
	m := externalIDPattern.FindStringSubmatch(base)
	if m == nil {
		return 0
	}

	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
