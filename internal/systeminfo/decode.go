package systeminfo

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decode converts raw systeminfo output to a string. Consoles that are not
// switched to UTF-8 emit the OEM code page, so invalid UTF-8 is decoded as
// code page 850, which covers the Western European locales.
func Decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, err := charmap.CodePage850.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
