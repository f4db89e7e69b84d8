// Command yi1fw unpacks, repacks, region-flips, and self-tests YI M1 /
// Fujifilm X-A10 firmware images from the command line.
//
// Usage:
//
//	yi1fw unpack [options] <firmware.bin> <outdir>
//	yi1fw repack [options] <manifest.yaml> <outdir> <firmware.bin>
//	yi1fw flip [options] <firmware.bin> <out.bin>
//	yi1fw self-test [options] <firmware.bin>
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/go-firmware/yi1fw"
	"github.com/go-firmware/yi1fw/catalog"
	"github.com/go-firmware/yi1fw/manifest"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "unpack":
		err = runUnpack(os.Args[2:])
	case "repack":
		err = runRepack(os.Args[2:])
	case "flip":
		err = runFlip(os.Args[2:])
	case "self-test":
		err = runSelfTest(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "yi1fw: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "yi1fw: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  yi1fw unpack [options] <firmware.bin> <outdir>
  yi1fw repack [options] <manifest.yaml> <outdir> <firmware.bin>
  yi1fw flip [options] <firmware.bin> <out.bin>
  yi1fw self-test [options] <firmware.bin>

Run "yi1fw <command> -h" for command-specific options.
`)
}

func newLogger(quiet, verbose bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	switch {
	case quiet:
		l.SetLevel(log.ErrorLevel)
	case verbose:
		l.SetLevel(log.DebugLevel)
	default:
		l.SetLevel(log.InfoLevel)
	}
	return l
}

// --- unpack ---

func runUnpack(args []string) error {
	fs := pflag.NewFlagSet("unpack", pflag.ContinueOnError)
	quiet := fs.BoolP("quiet", "q", false, "suppress informational output")
	verbose := fs.BoolP("verbose", "v", false, "emit per-file debug output")
	noCatalog := fs.Bool("no-catalog", false, "skip device-catalog recognition, never split section 0")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, fs.FlagUsagesWrapped(0))
		return fmt.Errorf("unpack: expected <firmware.bin> <outdir>")
	}
	logger := newLogger(*quiet, *verbose)

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("unpack: reading %s: %w", fs.Arg(0), err)
	}

	var cat yi1fw.DeviceCatalog
	if !*noCatalog {
		cat = catalog.New()
	}

	m, files, report, err := yi1fw.Unpack(context.Background(), data, cat)
	if err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	for _, w := range report.Warnings {
		logger.Warn(w)
	}

	outdir := fs.Arg(1)
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("unpack: creating %s: %w", outdir, err)
	}

	for _, f := range files {
		path := filepath.Join(outdir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("unpack: writing %s: %w", path, err)
		}
		logger.Debug("wrote", "file", f.Name, "bytes", len(f.Data))
	}

	m.Filename = filepath.Base(fs.Arg(0))
	manifestData, err := manifest.Marshal(m)
	if err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	manifestPath := filepath.Join(outdir, "manifest.yaml")
	if err := os.WriteFile(manifestPath, manifestData, 0o644); err != nil {
		return fmt.Errorf("unpack: writing %s: %w", manifestPath, err)
	}

	logger.Info("unpacked", "sections", len(m.Sections), "files", len(files), "manifest", manifestPath)
	return nil
}

// --- repack ---

func runRepack(args []string) error {
	fs := pflag.NewFlagSet("repack", pflag.ContinueOnError)
	quiet := fs.BoolP("quiet", "q", false, "suppress informational output")
	verbose := fs.BoolP("verbose", "v", false, "emit debug output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, fs.FlagUsagesWrapped(0))
		return fmt.Errorf("repack: expected <manifest.yaml> <outdir> <firmware.bin>")
	}
	logger := newLogger(*quiet, *verbose)

	manifestData, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("repack: reading %s: %w", fs.Arg(0), err)
	}
	m, err := manifest.Unmarshal(manifestData)
	if err != nil {
		return fmt.Errorf("repack: %w", err)
	}

	indir := fs.Arg(1)
	files, err := loadManifestFiles(indir, m)
	if err != nil {
		return fmt.Errorf("repack: %w", err)
	}
	logger.Debug("loaded", "files", len(files), "dir", indir)

	out, err := yi1fw.Repack(context.Background(), m, files)
	if err != nil {
		return fmt.Errorf("repack: %w", err)
	}

	outPath := fs.Arg(2)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("repack: writing %s: %w", outPath, err)
	}
	logger.Info("repacked", "sections", len(m.Sections), "bytes", len(out), "output", outPath)
	return nil
}

func loadManifestFiles(dir string, m *manifest.Manifest) (map[string][]byte, error) {
	files := make(map[string][]byte)
	load := func(name string) error {
		if name == "" || files[name] != nil {
			return nil
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		files[name] = data
		return nil
	}
	for _, sec := range m.Sections {
		if len(sec.Subsections) == 0 {
			if err := load(sec.Filename); err != nil {
				return nil, err
			}
			continue
		}
		for _, sub := range sec.Subsections {
			if sub.Compressed {
				if err := load(sub.FilenameDecompressed); err != nil {
					return nil, err
				}
				continue
			}
			if err := load(sub.Filename); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

// --- flip ---

func runFlip(args []string) error {
	fs := pflag.NewFlagSet("flip", pflag.ContinueOnError)
	quiet := fs.BoolP("quiet", "q", false, "suppress informational output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, fs.FlagUsagesWrapped(0))
		return fmt.Errorf("flip: expected <firmware.bin> <out.bin>")
	}
	logger := newLogger(*quiet, false)

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("flip: reading %s: %w", fs.Arg(0), err)
	}
	out, err := yi1fw.FlipRegion(data)
	if err != nil {
		return fmt.Errorf("flip: %w", err)
	}
	if err := os.WriteFile(fs.Arg(1), out, 0o644); err != nil {
		return fmt.Errorf("flip: writing %s: %w", fs.Arg(1), err)
	}
	logger.Info("flipped region", "output", fs.Arg(1))
	return nil
}

// --- self-test ---

func runSelfTest(args []string) error {
	fs := pflag.NewFlagSet("self-test", pflag.ContinueOnError)
	quiet := fs.BoolP("quiet", "q", false, "suppress informational output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, fs.FlagUsagesWrapped(0))
		return fmt.Errorf("self-test: expected <firmware.bin>")
	}
	logger := newLogger(*quiet, false)

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("self-test: reading %s: %w", fs.Arg(0), err)
	}
	report, err := yi1fw.SelfTest(context.Background(), data, catalog.New())
	if err != nil {
		return fmt.Errorf("self-test: %w", err)
	}

	for _, r := range report.Results {
		if r.ByteEqual {
			logger.Debug("round trip ok", "section", r.SectionIndex, "subsection", r.SubsectionIndex, "bytes", r.OriginalLength)
			continue
		}
		logger.Error("round trip mismatch", "section", r.SectionIndex, "subsection", r.SubsectionIndex, "firstDiff", r.FirstDiffOffset)
	}

	if !report.AllPassed {
		return fmt.Errorf("self-test: %d sub-section(s) failed round trip", countFailed(report))
	}
	logger.Info("self-test passed", "sub-sections tested", len(report.Results))
	return nil
}

func countFailed(report *yi1fw.SelfTestReport) int {
	n := 0
	for _, r := range report.Results {
		if !r.ByteEqual {
			n++
		}
	}
	return n
}
