package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"ibloom.lopezb.com/internal/bloom"
	"ibloom.lopezb.com/internal/snapshot"
)

// Snapshot layouts accepted by -format.
const (
	formatBundled  = "bundled"
	formatDetached = "detached"
)

// maxKeyLength bounds a single input line.
const maxKeyLength = 1 << 20

type buildConfig struct {
	out       string
	in        string
	format    string
	strategy  string
	hash      string
	size      uint64
	capacity  uint64
	errorRate float64
}

// handleBuild handles the build command.
//
// It creates an empty filter, adds every key read from -in (stdin by default)
// and saves the result. When -size is omitted the bitfield is sized from
// -capacity and -error-rate.
func (app *application) handleBuild(args []string) error {
	var cfg buildConfig

	fs := app.newFlagSet("build")
	fs.StringVar(&cfg.out, "out", "", "Output snapshot path (required)")
	fs.StringVar(&cfg.in, "in", "", "Key file, one key per line (default stdin)")
	fs.StringVar(&cfg.format, "format", formatBundled, "Snapshot layout: bundled or detached")
	fs.StringVar(&cfg.strategy, "strategy", "seeded", "Filter strategy: seeded or checksum")
	fs.StringVar(&cfg.hash, "hash", "xxh64", "Seeded hash primitive: xxh64 or murmur3")
	fs.Uint64Var(&cfg.size, "size", 0, "Bitfield size in bytes (0 derives it from -capacity and -error-rate)")
	fs.Uint64Var(&cfg.capacity, "capacity", 1000, "Expected number of keys")
	fs.Float64Var(&cfg.errorRate, "error-rate", 0.01, "Target false positive rate when -size is 0")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if cfg.out == "" {
		return fmt.Errorf("%w: build requires -out", errUsage)
	}
	if err := checkFormat(cfg.format); err != nil {
		return err
	}
	strategy, err := bloom.ParseStrategy(cfg.strategy)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	hash, err := bloom.ParseHash(cfg.hash)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	size := cfg.size
	if size == 0 {
		size = bloom.EstimateSize(cfg.capacity, cfg.errorRate)
		app.logger.Debug("derived bitfield size", "capacity", cfg.capacity, "error_rate", cfg.errorRate, "size", size)
	}

	m, err := bloom.NewMembership(strategy, size, cfg.capacity, bloom.Config{Hash: hash})
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	in, closeIn, err := app.openInput(cfg.in)
	if err != nil {
		return err
	}
	defer closeIn()

	if err := readKeys(in, func(key []byte) error {
		m.Add(key)
		return nil
	}); err != nil {
		return err
	}

	if err := saveSnapshot(cfg.out, cfg.format, m); err != nil {
		return err
	}

	app.logger.Info("filter built",
		"path", cfg.out,
		"format", cfg.format,
		"strategy", m.Strategy(),
		"size", m.Size(),
		"capacity", m.Capacity(),
		"hash_count", m.HashCount(),
		"elements", m.ElementCount(),
		"estimated_fpr", m.FalsePositiveRate())

	if m.ElementCount() > m.Capacity() {
		app.logger.Warn("element count exceeds capacity; false positive rate is degraded",
			"elements", m.ElementCount(), "capacity", m.Capacity())
	}

	return nil
}

// handleCheck handles the check command.
//
// For each key (from the arguments, or stdin when none are given) it prints
// 1 if the key is possibly present and 0 if it is definitely absent, one
// result per line in input order.
func (app *application) handleCheck(args []string) error {
	var path, format string

	fs := app.newFlagSet("check")
	fs.StringVar(&path, "snapshot", "", "Snapshot path (required)")
	fs.StringVar(&format, "format", formatBundled, "Snapshot layout: bundled or detached")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: check requires -snapshot", errUsage)
	}
	if err := checkFormat(format); err != nil {
		return err
	}

	m, err := loadSnapshot(path, format)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(app.stdout)
	report := func(key []byte) error {
		result := "0\n"
		if m.Check(key) {
			result = "1\n"
		}
		_, err := w.WriteString(result)
		return err
	}

	if fs.NArg() > 0 {
		for _, key := range fs.Args() {
			if err := report([]byte(key)); err != nil {
				return err
			}
		}
	} else if err := readKeys(app.stdin, report); err != nil {
		return err
	}

	return w.Flush()
}

// handleInspect handles the inspect command. Loading the snapshot verifies
// its checksum; the report lists the stored parameters and derived
// statistics.
func (app *application) handleInspect(args []string) error {
	var path, format string

	fs := app.newFlagSet("inspect")
	fs.StringVar(&path, "snapshot", "", "Snapshot path (required)")
	fs.StringVar(&format, "format", formatBundled, "Snapshot layout: bundled or detached")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: inspect requires -snapshot", errUsage)
	}
	if err := checkFormat(format); err != nil {
		return err
	}

	m, err := loadSnapshot(path, format)
	if err != nil {
		return err
	}

	bits := m.Bitfield()
	hash := "-"
	if h := bloom.HashOf(m); h.Valid() {
		hash = h.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Snapshot:       %s (%s)\n", path, format)
	b.WriteString("Checksum:       OK\n")
	fmt.Fprintf(&b, "Strategy:       %s\n", m.Strategy())
	fmt.Fprintf(&b, "Hash:           %s\n", hash)
	fmt.Fprintf(&b, "Size:           %d bytes (%d bits)\n", m.Size(), bits.Bits())
	fmt.Fprintf(&b, "Capacity:       %d\n", m.Capacity())
	fmt.Fprintf(&b, "Hash Count:     %d\n", m.HashCount())
	fmt.Fprintf(&b, "Elements:       %d\n", m.ElementCount())
	fmt.Fprintf(&b, "Bits Set:       %d (%.2f%%)\n", bits.OnesCount(), bits.FillRatio()*100)
	fmt.Fprintf(&b, "Estimated FPR:  %.6f\n", m.FalsePositiveRate())
	fmt.Fprintf(&b, "At Capacity:    %.6f\n", bloom.ComputeFalsePositiveRate(m.Size(), m.Capacity(), m.HashCount()))

	_, err = io.WriteString(app.stdout, b.String())
	return err
}

func (app *application) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(app.stderr)
	return fs
}

// parseFlags parses args into fs, classifying parse failures as usage errors.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func checkFormat(format string) error {
	if format != formatBundled && format != formatDetached {
		return fmt.Errorf("%w: unknown format %q", errUsage, format)
	}
	return nil
}

// openInput returns the key source: the named file, or stdin for "" or "-".
func (app *application) openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return app.stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// readKeys calls fn for every line of r, without the line ending. A blank
// line is the empty key. The slice passed to fn is only valid for the
// duration of the call.
func readKeys(r io.Reader, fn func(key []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxKeyLength)

	for sc.Scan() {
		line := sc.Bytes()
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func saveSnapshot(path, format string, m bloom.Membership) error {
	if format == formatDetached {
		return snapshot.SaveDetached(path, m)
	}
	return snapshot.SaveFile(path, m)
}

func loadSnapshot(path, format string) (bloom.Membership, error) {
	if format == formatDetached {
		return snapshot.LoadDetached(path)
	}
	return snapshot.LoadFile(path)
}
