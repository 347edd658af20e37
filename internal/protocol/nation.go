package protocol

import "fmt"

// Nation is the single-byte nationality code carried in SessionInfo.
// The wire value space is 0..50 inclusive; any other value is rejected
// during session-info validation.
type Nation uint8

// Distinguished nation values named by the spec; the remaining values
// in [0, 50] are valid but otherwise unremarkable flag codes.
const (
	NationNone         Nation = 0
	NationCustomTeam17 Nation = 49
)

// MaxNation is the highest valid Nation value (inclusive).
const MaxNation = 50

// nationNames gives every valid Nation a stable display name, mirroring
// the flag list the legacy client ships. Index is the wire value.
var nationNames = [MaxNation + 1]string{
	0: "none", 1: "albania", 2: "algeria", 3: "argentina", 4: "australia",
	5: "austria", 6: "belgium", 7: "brazil", 8: "bulgaria", 9: "canada",
	10: "chile", 11: "china", 12: "colombia", 13: "croatia", 14: "cyprus",
	15: "czech-republic", 16: "denmark", 17: "egypt", 18: "england", 19: "estonia",
	20: "finland", 21: "france", 22: "germany", 23: "greece", 24: "hungary",
	25: "iceland", 26: "india", 27: "ireland", 28: "israel", 29: "italy",
	30: "japan", 31: "latvia", 32: "lithuania", 33: "mexico", 34: "netherlands",
	35: "new-zealand", 36: "norway", 37: "poland", 38: "portugal", 39: "romania",
	40: "russia", 41: "scotland", 42: "slovakia", 43: "slovenia", 44: "south-africa",
	45: "spain", 46: "sweden", 47: "switzerland", 48: "turkey",
	49: "custom-team17", 50: "wales",
}

// Valid reports whether n falls within the defined wire range.
func (n Nation) Valid() bool {
	return n <= MaxNation
}

// String returns the nation's display name, or a numeric fallback for
// any (invalid) out-of-range value.
func (n Nation) String() string {
	if !n.Valid() {
		return fmt.Sprintf("nation(%d)", uint8(n))
	}
	return nationNames[n]
}
