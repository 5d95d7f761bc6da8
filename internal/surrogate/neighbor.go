package surrogate

// noNeighborDistance is reported when nothing has been measured yet.
const noNeighborDistance = 1000

// minDistance scans measured sequences in insertion order. The first
// sequence at distance exactly 1 ends the scan; otherwise the smallest
// distance wins and ties go to the earliest measured sequence.
func (s *Surrogate) minDistance(seq string) (int, string, bool) {
	best := noNeighborDistance
	closest := ""
	found := false
	for _, candidate := range s.measured.order {
		d := s.distance(seq, candidate)
		if d == 1 {
			return 1, candidate, true
		}
		if d < best {
			best = d
			closest = candidate
			found = true
		}
	}
	return best, closest, found
}
