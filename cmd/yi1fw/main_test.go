package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-firmware/yi1fw/internal/container"
	"github.com/go-firmware/yi1fw/internal/lzss"
	"github.com/go-firmware/yi1fw/internal/splitter"
)

// binaryPath holds the path to the compiled yi1fw binary. Set in TestMain.
var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "yi1fw-test-bin-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "yi1fw")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = rootDir()
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// Mark binary as empty so tests skip gracefully.
		binaryPath = ""
		os.Exit(m.Run())
	}

	os.Exit(m.Run())
}

// rootDir returns the absolute path of the cmd/yi1fw source directory.
func rootDir() string {
	dir, err := filepath.Abs(".")
	if err != nil {
		panic(err)
	}
	return dir
}

// skipIfNoBinary skips the test when the binary was not built.
func skipIfNoBinary(t *testing.T) {
	t.Helper()
	if binaryPath == "" {
		t.Skip("yi1fw binary not built; skipping")
	}
}

// runYi1fw executes the yi1fw binary with the given arguments.
func runYi1fw(t *testing.T, args ...string) (stdout, stderr []byte, err error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func sumBytesForTest(b []byte) int64 {
	var sum int64
	for _, v := range b {
		sum += int64(v)
	}
	return sum
}

func itoa64(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// buildFirmwareImage assembles a minimal two-section image recognized by
// the default catalog (C59Y1/M1INT/Ver1.37): section 0 holds an
// uncompressed prologue, a zero-run boundary, and one LZSS-compressed
// sub-block; section 1 is a single opaque body.
func buildFirmwareImage(t *testing.T) []byte {
	t.Helper()

	prologue := make([]byte, splitter.Alignment-20)
	for i := range prologue {
		prologue[i] = byte(i)
	}
	zeroRun := make([]byte, 20)

	payload := bytes.Repeat([]byte("firmware-payload-bytes-"), 12)
	compressed, err := lzss.Encode(payload)
	if err != nil {
		t.Fatalf("lzss.Encode: %v", err)
	}
	if rem := len(compressed) % splitter.Alignment; rem != 0 {
		compressed = append(compressed, make([]byte, splitter.Alignment-rem)...)
	}

	body0 := append(append(append([]byte{}, prologue...), zeroRun...), compressed...)
	header0 := "SEC0 C59Y1 VER=M1INT DVR=Ver1.37 LENGTH=" + itoa64(int64(len(body0))) +
		" SUM=" + itoa64(sumBytesForTest(body0))

	body1 := []byte("trailing-opaque-section-body")
	header1 := "SEC1 C59Y1 VER=M1INT LENGTH=" + itoa64(int64(len(body1))) +
		" SUM=" + itoa64(sumBytesForTest(body1))

	var out []byte
	out = append(out, container.FormatHeader(header0)...)
	out = append(out, body0...)
	out = append(out, container.FormatHeader(header1)...)
	out = append(out, body1...)
	return out
}

func TestUnpack_WritesManifestAndFiles(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	fwPath := filepath.Join(dir, "firmware.bin")
	if err := os.WriteFile(fwPath, buildFirmwareImage(t), 0o644); err != nil {
		t.Fatalf("writing firmware: %v", err)
	}
	outdir := filepath.Join(dir, "out")

	_, stderr, err := runYi1fw(t, "unpack", fwPath, outdir)
	if err != nil {
		t.Fatalf("unpack failed: %v\nstderr: %s", err, stderr)
	}

	manifestPath := filepath.Join(outdir, "manifest.yaml")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if !strings.Contains(string(data), "version: 0") {
		t.Errorf("manifest missing version field:\n%s", data)
	}

	entries, err := os.ReadDir(outdir)
	if err != nil {
		t.Fatalf("reading outdir: %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("unpack produced %d directory entries, want at least manifest + one file", len(entries))
	}
}

func TestUnpackRepack_RoundTrip(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	fwPath := filepath.Join(dir, "firmware.bin")
	original := buildFirmwareImage(t)
	if err := os.WriteFile(fwPath, original, 0o644); err != nil {
		t.Fatalf("writing firmware: %v", err)
	}
	outdir := filepath.Join(dir, "out")

	_, stderr, err := runYi1fw(t, "unpack", fwPath, outdir)
	if err != nil {
		t.Fatalf("unpack failed: %v\nstderr: %s", err, stderr)
	}

	repackedPath := filepath.Join(dir, "repacked.bin")
	_, stderr, err = runYi1fw(t, "repack", filepath.Join(outdir, "manifest.yaml"), outdir, repackedPath)
	if err != nil {
		t.Fatalf("repack failed: %v\nstderr: %s", err, stderr)
	}

	repacked, err := os.ReadFile(repackedPath)
	if err != nil {
		t.Fatalf("reading repacked firmware: %v", err)
	}
	if !bytes.Equal(repacked, original) {
		t.Errorf("repack did not reproduce the original image byte-for-byte (orig=%d bytes, repacked=%d bytes)",
			len(original), len(repacked))
	}
}

func TestFlip_Involution(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	fwPath := filepath.Join(dir, "firmware.bin")
	original := buildFirmwareImage(t)
	if err := os.WriteFile(fwPath, original, 0o644); err != nil {
		t.Fatalf("writing firmware: %v", err)
	}

	flippedPath := filepath.Join(dir, "flipped.bin")
	_, stderr, err := runYi1fw(t, "flip", fwPath, flippedPath)
	if err != nil {
		t.Fatalf("flip failed: %v\nstderr: %s", err, stderr)
	}
	flipped, err := os.ReadFile(flippedPath)
	if err != nil {
		t.Fatalf("reading flipped firmware: %v", err)
	}
	if bytes.Equal(flipped, original) {
		t.Error("flip produced no change")
	}

	backPath := filepath.Join(dir, "back.bin")
	_, stderr, err = runYi1fw(t, "flip", flippedPath, backPath)
	if err != nil {
		t.Fatalf("second flip failed: %v\nstderr: %s", err, stderr)
	}
	back, err := os.ReadFile(backPath)
	if err != nil {
		t.Fatalf("reading twice-flipped firmware: %v", err)
	}
	if !bytes.Equal(back, original) {
		t.Error("flip(flip(x)) != x")
	}
}

func TestSelfTest_PassesOnWellFormedImage(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	fwPath := filepath.Join(dir, "firmware.bin")
	if err := os.WriteFile(fwPath, buildFirmwareImage(t), 0o644); err != nil {
		t.Fatalf("writing firmware: %v", err)
	}

	_, stderr, err := runYi1fw(t, "self-test", fwPath)
	if err != nil {
		t.Fatalf("self-test failed: %v\nstderr: %s", err, stderr)
	}
}

func TestUnpack_MissingInput(t *testing.T) {
	skipIfNoBinary(t)
	_, _, err := runYi1fw(t, "unpack")
	if err == nil {
		t.Fatal("expected non-zero exit for missing arguments, got nil")
	}
}

func TestUnpack_NonexistentFile(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	_, _, err := runYi1fw(t, "unpack", "/nonexistent/firmware.bin", filepath.Join(dir, "out"))
	if err == nil {
		t.Fatal("expected non-zero exit for nonexistent input, got nil")
	}
}

func TestUnknownCommand(t *testing.T) {
	skipIfNoBinary(t)
	_, _, err := runYi1fw(t, "badcmd")
	if err == nil {
		t.Fatal("expected non-zero exit for unknown command, got nil")
	}
}

func TestNoArgs(t *testing.T) {
	skipIfNoBinary(t)
	_, _, err := runYi1fw(t)
	if err == nil {
		t.Fatal("expected non-zero exit for no arguments, got nil")
	}
}

func TestHelp(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runYi1fw(t, "-h")
	if err != nil {
		t.Fatalf("expected zero exit for -h, got: %v", err)
	}
	out := string(stderr)
	if !strings.Contains(out, "unpack") || !strings.Contains(out, "repack") {
		t.Errorf("expected usage text to mention unpack/repack, got:\n%s", out)
	}
}

func TestFlip_UnknownRegion(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	body := []byte("payload")
	header := "SEC0 dev LENGTH=" + itoa64(int64(len(body))) + " SUM=" + itoa64(sumBytesForTest(body))
	var image []byte
	image = append(image, container.FormatHeader(header)...)
	image = append(image, body...)

	fwPath := filepath.Join(dir, "noregion.bin")
	if err := os.WriteFile(fwPath, image, 0o644); err != nil {
		t.Fatalf("writing firmware: %v", err)
	}

	_, stderr, err := runYi1fw(t, "flip", fwPath, filepath.Join(dir, "out.bin"))
	if err == nil {
		t.Fatal("expected non-zero exit for a header with no VER= token, got nil")
	}
	if !strings.Contains(string(stderr), "M1INT") {
		t.Errorf("expected stderr to mention the unknown-region failure, got:\n%s", stderr)
	}
}
