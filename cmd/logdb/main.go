package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/downfa11-org/logdb/pkg/config"
	"github.com/downfa11-org/logdb/pkg/disk"
	"github.com/downfa11-org/logdb/pkg/engine"
	"github.com/downfa11-org/logdb/pkg/inspect"
	"github.com/downfa11-org/logdb/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Println("failed to load config:", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Println("failed to create data dir:", err)
		os.Exit(1)
	}
	if cfg.EnableExporter {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}

	db := engine.New(disk.NewFileHandler(), disk.NewFileHandler())
	db.SetSyncWrites(cfg.SyncEveryWrite)
	if err := db.Open(cfg.LogPath(), cfg.IndexPath()); err != nil {
		fmt.Println("failed to open database:", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("logdb ready. Commands: APPEND k payload | GET k | DELETE k | STATUS g v | SCAN s | COUNT | STATS | INSPECT | EXIT")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "EXIT") {
			break
		}
		fmt.Println(handle(db, cfg, line))
	}
}

func handle(db *engine.Engine, cfg *config.Config, line string) string {
	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "APPEND":
		if len(args) < 2 {
			return "usage: APPEND key payload"
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err.Error()
		}
		payload := strings.Join(args[1:], " ")
		if err := db.Append(key, 1, []byte(payload)); err != nil {
			return "append failed: " + err.Error()
		}
		return "OK"

	case "GET":
		if len(args) != 1 {
			return "usage: GET key"
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err.Error()
		}
		buf := make([]byte, 0xFFFF)
		n, err := db.Get(key, buf)
		if err != nil {
			return "get failed: " + err.Error()
		}
		return string(buf[:n])

	case "DELETE":
		if len(args) != 1 {
			return "usage: DELETE key"
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err.Error()
		}
		if err := db.DeleteRecord(key); err != nil {
			return "delete failed: " + err.Error()
		}
		return "OK"

	case "STATUS":
		if len(args) != 2 {
			return "usage: STATUS globalIndex value"
		}
		idx, err := parseKey(args[0])
		if err != nil {
			return err.Error()
		}
		val, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return "invalid status value: " + err.Error()
		}
		if err := db.UpdateStatus(idx, uint8(val)); err != nil {
			return "status update failed: " + err.Error()
		}
		return "OK"

	case "SCAN":
		if len(args) != 1 {
			return "usage: SCAN status"
		}
		val, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return "invalid status value: " + err.Error()
		}
		results := make([]uint32, 64)
		n, err := db.FindByStatus(uint8(val), results)
		if err != nil {
			return "scan failed: " + err.Error()
		}
		return fmt.Sprintf("%d match(es): %v", n, results[:n])

	case "COUNT":
		return fmt.Sprintf("%d entries", db.IndexCount())

	case "STATS":
		stats, err := db.Stats()
		if err != nil {
			return "stats failed: " + err.Error()
		}
		return stats.String()

	case "INSPECT":
		if err := db.Flush(); err != nil {
			return "flush failed: " + err.Error()
		}
		ins, err := inspect.Open(cfg.IndexPath())
		if err != nil {
			return "inspect failed: " + err.Error()
		}
		defer ins.Close()
		var logSize uint32
		if info, err := os.Stat(cfg.LogPath()); err == nil {
			logSize = uint32(info.Size())
		}
		if err := ins.Validate(logSize); err != nil {
			return "index INVALID: " + err.Error()
		}
		return fmt.Sprintf("index valid, %d entries", ins.Count())

	default:
		return "unknown command " + cmd
	}
}

func parseKey(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q", s)
	}
	return uint32(v), nil
}
