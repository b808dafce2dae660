package filestore

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMode(t *testing.T) {
	tests := []struct {
		mode fs.FileMode
		want string
	}{
		{0o644, "-rw-r--r--"},
		{fs.ModeDir | 0o755, "drwxr-xr-x"},
		{fs.ModeDir | fs.ModeSetgid | 0o755, "drwxr-sr-x"},
		{fs.ModeSetuid | 0o755, "-rwsr-xr-x"},
		{fs.ModeSetuid | 0o644, "-rwSr--r--"},
		{fs.ModeDir | fs.ModeSticky | 0o777, "drwxrwxrwt"},
		{fs.ModeSticky | 0o644, "-rw-r--r-T"},
		{fs.ModeSymlink | 0o777, "lrwxrwxrwx"},
		{fs.ModeNamedPipe | 0o600, "prw-------"},
		{fs.ModeSocket | 0o755, "srwxr-xr-x"},
		{fs.ModeDevice | fs.ModeCharDevice | 0o666, "crw-rw-rw-"},
		{fs.ModeDevice | 0o660, "brw-rw----"},
		{0, "----------"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMode(tt.mode))
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want fs.FileMode
	}{
		{"644", 0o644},
		{"0755", 0o755},
		{"0o750", 0o750},
		{"4755", fs.ModeSetuid | 0o755},
		{"2775", fs.ModeSetgid | 0o775},
		{"1777", fs.ModeSticky | 0o777},
		{"-rw-r--r--", 0o644},
		{"drwxr-sr-x", fs.ModeSetgid | 0o755},
		{"rwxr-x---", 0o750},
		{"-rwSr--r--", fs.ModeSetuid | 0o644},
		{"-rw-r--r-T", fs.ModeSticky | 0o644},
		{"drwxrwxrwt", fs.ModeSticky | 0o777},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMode_Invalid(t *testing.T) {
	for _, in := range []string{"", "rw", "99", "17777", "xrw-r--r--", "-rw-r--r-s", "-rwtr--r--", "-rw-r--r--x"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMode(in)
			assert.Error(t, err)
		})
	}
}

func TestParseMode_RoundTrip(t *testing.T) {
	for _, mode := range []fs.FileMode{0o644, 0o750, fs.ModeSetgid | 0o755, fs.ModeSticky | 0o777, fs.ModeSetuid | 0o644} {
		parsed, err := ParseMode(FormatMode(mode))
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}
}
