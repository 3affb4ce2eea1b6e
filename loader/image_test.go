package loader

import (
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{
			name:  "single cursor-free run",
			input: "13 05 70 00",
			want:  []byte{0x13, 0x05, 0x70, 0x00},
		},
		{
			name:  "explicit address resets cursor",
			input: "@80\n01 02\n@0\nAA BB",
			want:  []byte{0xAA, 0xBB, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x01, 0x02},
		},
		{
			name:  "blank lines ignored",
			input: "0F\n\n\nF0",
			want:  []byte{0x0F, 0xF0},
		},
		{
			name:  "empty input yields empty image",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Load() length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Load()[%d] = 0x%02x, want 0x%02x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadHaltSentinel(t *testing.T) {
	// addi x10, x0, 255 little-endian: 0x0FF00513
	got, err := Load(strings.NewReader("13 05 F0 0F"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	word := uint32(got[0]) | uint32(got[1])<<8 | uint32(got[2])<<16 | uint32(got[3])<<24
	if word != 0x0FF00513 {
		t.Fatalf("word = 0x%08x, want 0x0FF00513", word)
	}
}

func TestLoadInvalidAddress(t *testing.T) {
	if _, err := Load(strings.NewReader("@zz\n01")); err == nil {
		t.Fatal("expected error for invalid address, got nil")
	}
}

func TestLoadInvalidByte(t *testing.T) {
	if _, err := Load(strings.NewReader("zz")); err == nil {
		t.Fatal("expected error for invalid byte token, got nil")
	}
}
