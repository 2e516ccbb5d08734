package network

import "sort"

// SortCells sorts a slice of WifiCell structs in place.
// The sorting order is:
// 1. Cells with a saved profile first.
// 2. Signal strength (strongest first).
// 3. Fallback to SSID alphabetically.
func SortCells(cells []WifiCell) {
	sort.SliceStable(cells, func(i, j int) bool {
		a := cells[i]
		b := cells[j]

		aKnown, bKnown := a.ConnectionID != nil, b.ConnectionID != nil
		if aKnown != bKnown {
			return aKnown
		}

		if a.Signal != b.Signal {
			return a.Signal > b.Signal
		}

		return a.SSID < b.SSID
	})
}
