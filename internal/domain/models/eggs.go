package models

import (
	"fmt"
	"strconv"
	"strings"
)

// DayCount pairs a day with its egg count.
type DayCount struct {
	Day   DayKey `json:"day"`
	Count int    `json:"count"`
}

// ParseEggCount decodes a stored egg count. Negative values are rejected.
func ParseEggCount(raw []byte) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("egg count %q: %w", raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("egg count %d is negative", n)
	}
	return n, nil
}

// FormatEggCount encodes an egg count for storage.
func FormatEggCount(n int) []byte {
	return []byte(strconv.Itoa(n))
}

// SumCounts adds up the counts of a window.
func SumCounts(counts []int) int {
	var total int
	for _, c := range counts {
		total += c
	}
	return total
}
