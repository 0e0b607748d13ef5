package history

import (
	"sort"
	"time"
)

// MethodSummary aggregates the runs of one method.
type MethodSummary struct {
	Method      string
	Runs        int
	Succeeded   int
	AvgDuration time.Duration
}

// Summary holds aggregated run statistics.
type Summary struct {
	Total     int
	Succeeded int
	LastRun   time.Time
	Methods   []MethodSummary // sorted by run count, then name
}

// Summarize aggregates the whole log.
func Summarize() (*Summary, error) {
	entries, err := Read(0)
	if err != nil {
		return nil, err
	}
	return summarize(entries), nil
}

func summarize(entries []Entry) *Summary {
	s := &Summary{}
	type acc struct {
		runs, ok int
		seconds  float64
	}
	byMethod := make(map[string]*acc)

	for _, e := range entries {
		s.Total++
		if e.Status == StatusOK {
			s.Succeeded++
		}
		if e.Timestamp.After(s.LastRun) {
			s.LastRun = e.Timestamp
		}

		name := e.Method
		if name == "" {
			name = e.Command
		}
		a := byMethod[name]
		if a == nil {
			a = &acc{}
			byMethod[name] = a
		}
		a.runs++
		a.seconds += e.Duration
		if e.Status == StatusOK {
			a.ok++
		}
	}

	for name, a := range byMethod {
		s.Methods = append(s.Methods, MethodSummary{
			Method:      name,
			Runs:        a.runs,
			Succeeded:   a.ok,
			AvgDuration: time.Duration(a.seconds / float64(a.runs) * float64(time.Second)),
		})
	}
	sort.Slice(s.Methods, func(i, j int) bool {
		if s.Methods[i].Runs != s.Methods[j].Runs {
			return s.Methods[i].Runs > s.Methods[j].Runs
		}
		return s.Methods[i].Method < s.Methods[j].Method
	})
	return s
}
