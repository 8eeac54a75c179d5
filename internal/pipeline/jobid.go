package pipeline

import (
	"os"
	"strconv"
)

// NextJobID returns the next free numeric job directory name under
// root. A missing root counts as no jobs yet.
func NextJobID(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, err
	}
	max := 0
	for _, e := range entries {
		if n, err := strconv.Atoi(e.Name()); err == nil && n > max {
			max = n
		}
	}
	return max + 1, nil
}
