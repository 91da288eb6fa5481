package dataprep

import (
	"bytes"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// readTextFile reads a file and decodes it to UTF-8. The encoding is
// auto-detected: a BOM or valid UTF-8 wins, then the configured encoding,
// then cp1252 as the last resort (it never fails, so mixed legacy exports
// still load). This guards against mojibake when the configured encoding
// is wrong.
func readTextFile(path, configured string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	if cm := charmapFor(configured); cm != nil {
		if s, err := cm.NewDecoder().String(string(raw)); err == nil {
			return s, nil
		}
	}
	s, err := charmap.Windows1252.NewDecoder().String(string(raw))
	if err != nil {
		return "", err
	}
	return s, nil
}

func charmapFor(name string) *charmap.Charmap {
	switch name {
	case "cp1252", "windows-1252":
		return charmap.Windows1252
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1
	default:
		return nil
	}
}

// fixMojibake repairs strings where UTF-8 bytes were pasted into a file
// later decoded as cp1252 or latin-1 (e.g. "MÃ¼ller" for "Müller"). The
// repair re-encodes through the legacy charmap and accepts the result only
// when it decodes as valid UTF-8; anything else is returned unchanged.
func fixMojibake(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		encoded, err := cm.NewEncoder().String(s)
		if err != nil {
			continue
		}
		if utf8.ValidString(encoded) && encoded != s {
			return encoded
		}
	}
	return s
}
