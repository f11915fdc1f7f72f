package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/recht/triton/internal/cache"
)

// Record is the persisted metadata of one compiled specialization. It
// is created on the first compile, read back on later compiles to
// decide which stages can be skipped, and rewritten after every
// successful stage.
type Record struct {
	Name      string `json:"name"`
	NumWarps  int    `json:"num_warps"`
	NumStages int    `json:"num_stages"`
	Debug     bool   `json:"debug"`
	// Shared is the shared working memory footprint in bytes, recorded
	// by the backend-lowering stage.
	Shared int64 `json:"shared"`
	// Constants is the jsonable subset of the compile-time constant
	// bindings, keyed by parameter index.
	Constants map[string]string `json:"constants"`
	// CTime maps each stage to the exact modification time of its
	// cached artifact at the moment it was (re)built, in nanoseconds.
	CTime map[string]int64 `json:"ctime"`
}

func newRecord(opts Options) *Record {
	consts := map[string]string{}
	for i, c := range opts.Constants {
		consts[fmt.Sprintf("%d", i)] = c.Repr()
	}
	return &Record{
		NumWarps:  opts.NumWarps,
		NumStages: opts.NumStages,
		Debug:     opts.Debug,
		Constants: consts,
		CTime:     map[string]int64{},
	}
}

func loadRecord(dir *cache.Dir, name string) (*Record, bool) {
	data, err := dir.Get(name)
	if err != nil {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	if rec.CTime == nil {
		rec.CTime = map[string]int64{}
	}
	return &rec, true
}

func (r *Record) persist(dir *cache.Dir, name string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = dir.Put(name, data)
	return err
}
