package ticket

import (
	"regexp"
	"strconv"
)

// locationPattern matches the canonical "x, y, z" form.
var locationPattern = regexp.MustCompile(`(\S+), (\S+), (\S+)`)

// Location is an in-world position, independent of any game engine types.
type Location struct {
	X float64
	Y float64
	Z float64
}

// String renders the canonical wire form "x, y, z". The coordinates use
// the shortest representation that round-trips through ParseLocation.
func (l *Location) String() string {
	return formatCoord(l.X) + ", " + formatCoord(l.Y) + ", " + formatCoord(l.Z)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseLocation parses the canonical "x, y, z" form. It returns nil if the
// input does not match or a coordinate is not a number.
func ParseLocation(s string) *Location {
	m := locationPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	x, errX := strconv.ParseFloat(m[1], 64)
	y, errY := strconv.ParseFloat(m[2], 64)
	z, errZ := strconv.ParseFloat(m[3], 64)
	if errX != nil || errY != nil || errZ != nil {
		return nil
	}
	return &Location{X: x, Y: y, Z: z}
}
