package build

import (
	"errors"
	"os"
	"slices"
	"time"

	"github.com/goplus/llink/internal/linkgraph"
)

// State is the state of an archive relative to its sources.
type State string

const (
	// Fresh archives match their recorded sources.
	Fresh State = "fresh"
	// Stale archives have changed sources or a changed unit list.
	Stale State = "stale"
	// Missing archives were never built or were removed.
	Missing State = "missing"
)

// ArchiveStatus reports the state of one archive of a plan.
type ArchiveStatus struct {
	Name      string
	State     State
	Reason    string
	BuildTime time.Time
}

// Status compares the archives of plan against the manifest in cacheDir.
// It only reports; nothing is built or skipped based on it.
func Status(plan *linkgraph.Plan, rootDir, cacheDir string) ([]ArchiveStatus, error) {
	cache, err := loadCache(cacheDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cache = &buildCache{}
	}

	statuses := make([]ArchiveStatus, 0, len(plan.Archives))
	for _, spec := range plan.Archives {
		st := ArchiveStatus{Name: spec.Name}
		entry, ok := cache.get(spec.Name)
		switch {
		case !ok:
			st.State, st.Reason = Missing, "never built"
		case !fileExists(entry.Path):
			st.State, st.Reason, st.BuildTime = Missing, "archive removed", entry.BuildTime
		case !slices.Equal(entry.Units, spec.Units.Paths()):
			st.State, st.Reason, st.BuildTime = Stale, "source list changed", entry.BuildTime
		default:
			st.BuildTime = entry.BuildTime
			sum, err := fingerprint(rootDir, spec.Units)
			switch {
			case err != nil:
				st.State, st.Reason = Stale, err.Error()
			case sum != entry.Fingerprint:
				st.State, st.Reason = Stale, "sources changed"
			default:
				st.State = Fresh
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
