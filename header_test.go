package pmr

import (
	"testing"
	"unsafe"
)

func TestResolveAlignmentNaturalRule(t *testing.T) {
	cases := []struct {
		bytes uintptr
		want  uintptr
	}{
		{0, naturalAlignment},
		{1, 1},
		{2, 2},
		{3, 1},
		{4, 4},
		{8, 8},
		{16, 16},
		{32, naturalAlignment}, // capped at natural alignment
		{100, 4},
	}
	for _, c := range cases {
		got, ok := resolveAlignment(c.bytes, 0)
		if !ok {
			t.Fatalf("resolveAlignment(%d, 0): not ok", c.bytes)
		}
		if got != c.want {
			t.Errorf("resolveAlignment(%d, 0) = %d, want %d", c.bytes, got, c.want)
		}
	}
}

func TestResolveAlignmentRejectsNonPowerOfTwo(t *testing.T) {
	if _, ok := resolveAlignment(16, 3); ok {
		t.Error("resolveAlignment(16, 3) should not be ok")
	}
	if _, ok := resolveAlignment(16, maxAlignment*2); ok {
		t.Error("resolveAlignment with alignment beyond maxAlignment should not be ok")
	}
}

func TestHeaderPayloadRoundTrip(t *testing.T) {
	align := uintptr(16)
	stride := headerStride(align)
	buf := make([]byte, stride+64+guardSize)
	blockStart := unsafe.Pointer(&buf[0])

	payload := payloadFromHeader(blockStart, align)
	if uintptr(payload)-uintptr(blockStart) != stride {
		t.Fatalf("payload offset: got %d, want %d", uintptr(payload)-uintptr(blockStart), stride)
	}

	head := headerFromPayload(payload, align)
	if uintptr(unsafe.Pointer(head)) != uintptr(blockStart) {
		t.Errorf("headerFromPayload did not invert payloadFromHeader")
	}
}

func TestFillAndScanGuardBytes(t *testing.T) {
	buf := make([]byte, 32)
	start := unsafe.Pointer(&buf[0])
	fillBytes(start, 32, paddedByte)
	for _, b := range buf {
		if b != paddedByte {
			t.Fatalf("expected all bytes padded, found %x", b)
		}
	}

	buf[10] = 0x42
	dist := firstNonPaddedForward(start, 32)
	if dist != 11 {
		t.Errorf("firstNonPaddedForward: got %d, want 11", dist)
	}
}

func TestFirstNonPaddedBackward(t *testing.T) {
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = paddedByte
	}
	buf[5] = 0x99
	limit := unsafe.Pointer(&buf[0])
	ptr := unsafe.Pointer(uintptr(limit) + 16)

	dist := firstNonPaddedBackward(ptr, limit)
	if dist != uintptr(16-5) {
		t.Errorf("firstNonPaddedBackward: got %d, want %d", dist, 16-5)
	}
}
