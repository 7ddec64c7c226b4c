package atcf

import "strings"

// Basin identifies the ocean basin of a storm.
type Basin int

const (
	BasinNone Basin = iota
	BasinWP
	BasinIO
	BasinSH
	BasinCP
	BasinEP
	BasinAL
	BasinSL
)

var basinCodes = map[Basin]string{
	BasinWP: "WP",
	BasinIO: "IO",
	BasinSH: "SH",
	BasinCP: "CP",
	BasinEP: "EP",
	BasinAL: "AL",
	BasinSL: "SL",
}

// ParseBasin maps a two-letter ATCF basin code to a Basin. Unknown codes
// return BasinNone.
func ParseBasin(s string) Basin {
	s = strings.ToUpper(strings.TrimSpace(s))
	for b, code := range basinCodes {
		if code == s {
			return b
		}
	}
	return BasinNone
}

func (b Basin) String() string {
	if code, ok := basinCodes[b]; ok {
		return code
	}
	return "NONE"
}
