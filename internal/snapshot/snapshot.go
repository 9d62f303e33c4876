// Package snapshot writes the items of every completed run to its own json file.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/chrono"
	"tcgwatch/internal/components/telemetry"

	"github.com/mazen160/go-random"
)

const (
	report_snapshot_write = "snapshot.write"

	filePrefix   = "results_"
	timestampFmt = "2006-01-02_15-04-05"
	maxAttempts  = 5
)

// API persists the items of a run, implementations never overwrite a
// previous snapshot.
type API interface {
	Write(items []catalog.ValidatedItem) (string, error)
}

type Writer struct {
	dir  string
	time chrono.TimeAPI
	tel  telemetry.API
}

func NewWriter(dir string, time chrono.TimeAPI, tel telemetry.API) Writer {
	assert.NotNil(time)
	assert.NotNil(tel)
	if dir == "" {
		dir = "."
	}
	return Writer{
		dir:  dir,
		time: time,
		tel:  telemetry.NewScopedAPI("snapshot", tel),
	}
}

func (w Writer) create(base string) (*os.File, error) {
	name := base + ".json"
	for attempt := 0; attempt < maxAttempts; attempt++ {
		f, err := os.OpenFile(
			filepath.Join(w.dir, name),
			os.O_WRONLY|os.O_CREATE|os.O_EXCL,
			0644,
		)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		suffix, err := random.String(6)
		if err != nil {
			return nil, err
		}
		name = fmt.Sprintf("%s_%s.json", base, suffix)
	}
	return nil, fmt.Errorf("could not find a free name for %s after %d attempts", base, maxAttempts)
}

// Write creates results_<timestamp>.json, if that file already exists a
// random suffix is appended to the name.
func (w Writer) Write(items []catalog.ValidatedItem) (string, error) {
	if items == nil {
		items = []catalog.ValidatedItem{}
	}

	err := os.MkdirAll(w.dir, 0755)
	if err != nil {
		w.tel.ReportBroken(report_snapshot_write, err, w.dir)
		return "", err
	}

	f, err := w.create(filePrefix + w.time.Now().Format(timestampFmt))
	if err != nil {
		w.tel.ReportBroken(report_snapshot_write, err, w.dir)
		return "", err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(items)
	if err != nil {
		w.tel.ReportBroken(report_snapshot_write, fmt.Errorf("encode: %w", err), f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Read decodes a snapshot file.
func Read(path string) ([]catalog.ValidatedItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []catalog.ValidatedItem
	err = json.Unmarshal(content, &items)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

// Latest returns the path of the most recent snapshot in dir, false if there
// are none.
func Latest(dir string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return "", false, nil
	}
	// the timestamp format sorts lexically
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), true, nil
}
