// Package bench drives the engine through timed bulk workloads: a
// sequential append phase, a full point-read sweep and a status sweep.
package bench

import (
	"fmt"
	"os"
	"time"

	"github.com/downfa11-org/logdb/pkg/disk"
	"github.com/downfa11-org/logdb/pkg/engine"
	"github.com/google/uuid"
)

type Runner struct {
	DataDir    string
	Records    int
	SyncWrites bool
}

func NewRunner(dataDir string, records int, syncWrites bool) *Runner {
	return &Runner{
		DataDir:    dataDir,
		Records:    records,
		SyncWrites: syncWrites,
	}
}

func (r *Runner) Run() error {
	if err := os.MkdirAll(r.DataDir, 0o755); err != nil {
		return err
	}

	db := engine.New(disk.NewFileHandler(), disk.NewFileHandler())
	db.SetSyncWrites(r.SyncWrites)
	if err := db.Open(r.DataDir+"/BENCH.LOG", r.DataDir+"/BENCH.IDX"); err != nil {
		return err
	}
	defer db.Close()

	// Each payload carries a uuid so records are distinguishable when the
	// log is examined by hand.
	start := time.Now()
	for i := 0; i < r.Records; i++ {
		payload := []byte(fmt.Sprintf("rec-%d %s", i, uuid.NewString()))
		if err := db.Append(uint32(i+1), 1, payload); err != nil {
			return fmt.Errorf("append %d: %w", i, err)
		}
	}
	appendDur := time.Since(start)
	fmt.Printf("Appended %d records in %v (%.0f/s)\n",
		r.Records, appendDur, float64(r.Records)/appendDur.Seconds())

	buf := make([]byte, 256)
	start = time.Now()
	for i := 0; i < r.Records; i++ {
		if _, err := db.Get(uint32(i+1), buf); err != nil {
			return fmt.Errorf("get %d: %w", i, err)
		}
	}
	readDur := time.Since(start)
	fmt.Printf("Read %d records in %v (%.0f/s)\n",
		r.Records, readDur, float64(r.Records)/readDur.Seconds())

	start = time.Now()
	for i := 0; i < r.Records; i++ {
		if err := db.UpdateStatus(uint32(i), 0x01); err != nil {
			return fmt.Errorf("updateStatus %d: %w", i, err)
		}
	}
	statusDur := time.Since(start)
	fmt.Printf("Updated %d statuses in %v (%.0f/s)\n",
		r.Records, statusDur, float64(r.Records)/statusDur.Seconds())

	stats, err := db.Stats()
	if err != nil {
		return err
	}
	fmt.Print(stats)
	return nil
}
