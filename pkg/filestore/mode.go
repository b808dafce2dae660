package filestore

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// FormatMode renders mode in the conventional ten-character `ls -l` form,
// e.g. "drwxr-sr-x" or "-rw-r--r-T".
//
// fs.FileMode.String is not used because it prefixes setuid/setgid/sticky as
// extra type letters instead of folding them into the execute columns.
func FormatMode(mode fs.FileMode) string {
	var b [10]byte

	switch {
	case mode&fs.ModeDir != 0:
		b[0] = 'd'
	case mode&fs.ModeSymlink != 0:
		b[0] = 'l'
	case mode&fs.ModeNamedPipe != 0:
		b[0] = 'p'
	case mode&fs.ModeSocket != 0:
		b[0] = 's'
	case mode&fs.ModeCharDevice != 0:
		b[0] = 'c'
	case mode&fs.ModeDevice != 0:
		b[0] = 'b'
	case mode&fs.ModeIrregular != 0:
		b[0] = '?'
	default:
		b[0] = '-'
	}

	const rwx = "rwxrwxrwx"
	perm := mode.Perm()
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			b[i+1] = rwx[i]
		} else {
			b[i+1] = '-'
		}
	}

	b[3] = special(b[3], mode&fs.ModeSetuid != 0, 's')
	b[6] = special(b[6], mode&fs.ModeSetgid != 0, 's')
	b[9] = special(b[9], mode&fs.ModeSticky != 0, 't')

	return string(b[:])
}

func special(exec byte, set bool, letter byte) byte {
	if !set {
		return exec
	}
	if exec == 'x' {
		return letter
	}
	return letter - ('a' - 'A')
}

// ParseMode converts a permission string into mode bits suitable for chmod.
//
// Accepted forms:
//   - Octal: "644", "0755", "4755", "0o750"
//   - Symbolic with type column: "-rw-r--r--", "drwxr-sr-x" (type is ignored)
//   - Symbolic without type column: "rwxr-x---"
//
// Only permission, setuid, setgid and sticky bits are returned.
func ParseMode(s string) (fs.FileMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty permission string")
	}

	if isOctal(s) {
		return parseOctal(s)
	}

	switch len(s) {
	case 10:
		if !strings.ContainsRune("-dlpscb?", rune(s[0])) {
			return 0, fmt.Errorf("invalid file type character %q in %q", s[0], s)
		}
		return parseSymbolic(s[1:], s)
	case 9:
		return parseSymbolic(s, s)
	default:
		return 0, fmt.Errorf("invalid permission string %q", s)
	}
}

func isOctal(s string) bool {
	s = strings.TrimPrefix(s, "0o")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '7' {
			return false
		}
	}
	return true
}

func parseOctal(s string) (fs.FileMode, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q: %w", s, err)
	}
	if v > 07777 {
		return 0, fmt.Errorf("octal mode %q out of range", s)
	}

	mode := fs.FileMode(v & 0777)
	if v&04000 != 0 {
		mode |= fs.ModeSetuid
	}
	if v&02000 != 0 {
		mode |= fs.ModeSetgid
	}
	if v&01000 != 0 {
		mode |= fs.ModeSticky
	}
	return mode, nil
}

func parseSymbolic(perm, orig string) (fs.FileMode, error) {
	var mode fs.FileMode

	for i := 0; i < 9; i++ {
		c := perm[i]
		bit := fs.FileMode(1) << uint(8-i)

		switch i % 3 {
		case 0:
			if c == 'r' {
				mode |= bit
				continue
			}
		case 1:
			if c == 'w' {
				mode |= bit
				continue
			}
		case 2:
			handled, err := parseExecColumn(c, i/3, bit, &mode)
			if err != nil {
				return 0, fmt.Errorf("invalid permission string %q: %w", orig, err)
			}
			if handled {
				continue
			}
		}

		if c != '-' {
			return 0, fmt.Errorf("invalid permission string %q: unexpected %q at column %d", orig, c, i+1)
		}
	}
	return mode, nil
}

// parseExecColumn handles x/s/S/t/T for the user (0), group (1) and other (2)
// execute columns.
func parseExecColumn(c byte, who int, bit fs.FileMode, mode *fs.FileMode) (bool, error) {
	var flag fs.FileMode
	var letter byte
	switch who {
	case 0:
		flag, letter = fs.ModeSetuid, 's'
	case 1:
		flag, letter = fs.ModeSetgid, 's'
	default:
		flag, letter = fs.ModeSticky, 't'
	}

	switch c {
	case 'x':
		*mode |= bit
	case letter:
		*mode |= bit | flag
	case letter - ('a' - 'A'):
		*mode |= flag
	case '-':
		return false, nil
	default:
		return false, fmt.Errorf("unexpected %q in execute column", c)
	}
	return true, nil
}
