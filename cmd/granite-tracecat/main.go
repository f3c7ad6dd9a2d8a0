// Package main prints stored I/O traces in a human-readable form. It reads
// either a JSONL trace file produced by the file emitter or a badger trace
// store directory, in record order.
//
// Usage:
//
//	granite-tracecat --file /var/log/granitefs/iotrace.jsonl
//	granite-tracecat --store /var/lib/granitefs/traces --op MultiRead --errors-only
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/granite-db/granitefs/pkg/iotrace"
	"github.com/granite-db/granitefs/pkg/tracestore"
)

func main() {
	file := flag.String("file", "", "JSONL trace file to read")
	store := flag.String("store", "", "Badger trace store directory to read")
	opFilter := flag.String("op", "", "Only print records for this operation")
	errorsOnly := flag.Bool("errors-only", false, "Only print records with a non-OK status")
	asJSON := flag.Bool("json", false, "Re-emit matching records as JSON lines")
	flag.Parse()

	if (*file == "") == (*store == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --file or --store is required")
		os.Exit(2)
	}

	printed := 0
	emit := func(seq uint64, rec iotrace.Record) error {
		if *opFilter != "" && rec.Op != *opFilter {
			return nil
		}
		if *errorsOnly && rec.Status == "OK" {
			return nil
		}
		printed++
		if *asJSON {
			return json.NewEncoder(os.Stdout).Encode(rec)
		}
		printRecord(seq, rec)
		return nil
	}

	var err error
	if *file != "" {
		err = catFile(*file, emit)
	} else {
		err = catStore(*store, emit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*asJSON {
		fmt.Printf("%d records\n", printed)
	}
}

func catFile(path string, emit func(uint64, iotrace.Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var seq uint64
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec iotrace.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w", seq+1, err)
		}
		if err := emit(seq, rec); err != nil {
			return err
		}
		seq++
	}
	return scanner.Err()
}

func catStore(dir string, emit func(uint64, iotrace.Record) error) error {
	s, err := tracestore.Open(dir)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Scan(emit)
}

func printRecord(seq uint64, rec iotrace.Record) {
	ts := time.UnixMicro(int64(rec.Timestamp)).UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Printf("%8d  %s  %-20s %6dus  %s", seq, ts, rec.Op, rec.LatencyUS, rec.Status)

	switch rec.Kind {
	case iotrace.KindFileName:
		fmt.Printf("  file=%s", rec.FileName)
	case iotrace.KindFileNameAndSize:
		fmt.Printf("  file=%s size=%d", rec.FileName, rec.FileSize)
	case iotrace.KindLen:
		fmt.Printf("  len=%d", rec.Len)
	case iotrace.KindLenAndOffset:
		fmt.Printf("  len=%d off=%d", rec.Len, rec.Offset)
	}
	fmt.Println()
}
