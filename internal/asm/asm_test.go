package asm_test

// asm_test.go contains end-to-end tests that assemble source and check the resulting object code,
// both in the raw wire format (WriteTo) and the Intel-Hex-style format (Encode).

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cleardata/elsie16/internal/asm"
	"github.com/cleardata/elsie16/internal/encoding"
	"github.com/cleardata/elsie16/internal/log"
)

func testLogger() *log.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, log.Options))
}

func assemble(t *testing.T, src string) *asm.Generator {
	t.Helper()

	parser := asm.NewParser(testLogger())
	parser.Parse(strings.NewReader(src))

	if parser.Err() != nil {
		t.Fatalf("parse error: %s", parser.Err())
	}

	return asm.NewGenerator(parser.Symbols(), parser.Syntax())
}

func TestAssembler_WriteTo_SingleSegment(t *testing.T) {
	src := ".ORIG x3000\nADD R0,R0,R0\n.END\n"
	gen := assemble(t, src)

	var out bytes.Buffer

	n, err := gen.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}

	if n != 4 {
		t.Errorf("want 4 bytes written, got %d", n)
	}

	want := []byte{0x30, 0x00, 0x10, 0x00}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("want % x, got % x", want, out.Bytes())
	}
}

func TestAssembler_WriteTo_MultiSegment(t *testing.T) {
	src := ".ORIG x3000\nADD R0,R0,R0\n.ORIG x4000\nADD R1,R1,R1\n.END\n"
	gen := assemble(t, src)

	var out bytes.Buffer

	n, err := gen.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}

	if n != 8 {
		t.Errorf("want 8 bytes written, got %d", n)
	}

	want := []byte{0x30, 0x00, 0x10, 0x00, 0x40, 0x00, 0x12, 0x41}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("want % x, got % x", want, out.Bytes())
	}
}

func TestAssembler_Segments_MultiSegment(t *testing.T) {
	src := ".ORIG x3000\nADD R0,R0,R0\n.ORIG x4000\nADD R1,R1,R1\n.END\n"
	gen := assemble(t, src)

	segs, err := gen.Segments()
	if err != nil {
		t.Fatal(err)
	}

	if len(segs) != 2 {
		t.Fatalf("want 2 segments, got %d", len(segs))
	}

	if segs[0].Orig != 0x3000 || segs[1].Orig != 0x4000 {
		t.Errorf("unexpected origins: %#v", segs)
	}

	if len(segs[0].Code) != 1 || len(segs[1].Code) != 1 {
		t.Errorf("unexpected segment sizes: %#v", segs)
	}
}

func TestAssembler_Encode_RoundTrip(t *testing.T) {
	src := ".ORIG x3000\nADD R0,R0,R0\n.ORIG x4000\nADD R1,R1,R1\n.END\n"
	gen := assemble(t, src)

	encoded, err := gen.Encode()
	if err != nil {
		t.Fatal(err)
	}

	hex := encoding.HexEncoding{}
	if err := hex.UnmarshalText(encoded); err != nil {
		t.Fatalf("decode failed: %s", err)
	}

	segs := hex.Code()
	if len(segs) != 2 {
		t.Fatalf("want 2 decoded segments, got %d", len(segs))
	}

	if segs[0].Orig != 0x3000 || segs[1].Orig != 0x4000 {
		t.Errorf("unexpected origins: %#v", segs)
	}
}

func TestAssembler_WriteTo_NoOrig(t *testing.T) {
	parser := asm.NewParser(testLogger())
	parser.Parse(strings.NewReader(""))

	gen := asm.NewGenerator(parser.Symbols(), parser.Syntax())

	var out bytes.Buffer

	n, err := gen.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}

	if n != 0 {
		t.Errorf("want 0 bytes for empty source, got %d", n)
	}
}
