package pipeline

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Output files are named <stage>.<substage>_<type>... so the furthest
// (stage, substage) pair seen on disk tells how far a run has gotten.
var progressPattern = regexp.MustCompile(`^(\d+)\.(\d+)_`)

// Progress is a cumulative substage count over a whole job.
type Progress struct {
	Done, Total int
}

// ScanProgress derives progress from the files in a mixture working
// directory. substages holds the number of substages per stage, in
// stage order. The scan is observational: a missing or empty
// directory just means nothing has finished yet.
func ScanProgress(dir string, substages []int) (Progress, error) {
	total := 0
	for _, n := range substages {
		total += n
	}
	p := Progress{Total: total}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, err
	}
	bestStage, bestSub := 0, 0
	for _, e := range entries {
		m := progressPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		stage, _ := strconv.Atoi(m[1])
		sub, _ := strconv.Atoi(m[2])
		if stage > bestStage || (stage == bestStage && sub > bestSub) {
			bestStage, bestSub = stage, sub
		}
	}
	if bestStage == 0 {
		return p, nil
	}
	if bestStage > len(substages) {
		bestStage = len(substages)
		bestSub = substages[bestStage-1]
	}
	for _, n := range substages[:bestStage-1] {
		p.Done += n
	}
	if bestSub > substages[bestStage-1] {
		bestSub = substages[bestStage-1]
	}
	p.Done += bestSub
	return p, nil
}

// WatchProgress reports progress changes in dir until ctx is
// cancelled. Directory events trigger rescans; a ticker backstops
// them in case events are dropped or the directory does not exist
// yet.
func WatchProgress(ctx context.Context, dir string, substages []int,
	interval time.Duration, fn func(Progress)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	watching := watcher.Add(dir) == nil

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := Progress{Done: -1}
	report := func() error {
		p, err := ScanProgress(dir, substages)
		if err != nil {
			return err
		}
		if p != last {
			last = p
			fn(p)
		}
		return nil
	}
	if err := report(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-watcher.Events:
			if err := report(); err != nil {
				return err
			}
		case err := <-watcher.Errors:
			if err != nil {
				return err
			}
		case <-ticker.C:
			if !watching {
				watching = watcher.Add(dir) == nil
			}
			if err := report(); err != nil {
				return err
			}
		}
	}
}
