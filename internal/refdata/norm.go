package refdata

import "strconv"

// NormStopID canonicalizes a stop id. Feed-side ids for city stops are the
// static id with a leading '2' prepended to a 5-character code; those are
// stripped and numerically reparsed ("21005" -> "1005", "20034" -> "34").
// Anything else passes through opaque.
func NormStopID(id string) string {
	if len(id) == 5 && id[0] == '2' {
		n, err := strconv.Atoi(id[1:])
		if err != nil {
			return id
		}
		return strconv.Itoa(n)
	}
	return id
}

// NormRouteID canonicalizes a route id. Fully numeric ids are reparsed as
// integers ("00014" -> "14"); aliases like "3A" or "860MV" are kept verbatim.
func NormRouteID(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		return id
	}
	return strconv.Itoa(n)
}

// PadRouteID zero-pads a short numeric route id to the 5-digit form used as
// the shape key ("31" -> "00031"). Non-numeric and long ids are unchanged.
func PadRouteID(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil || strconv.Itoa(n) != id || len(id) > 3 {
		return id
	}
	s := strconv.Itoa(n)
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}
