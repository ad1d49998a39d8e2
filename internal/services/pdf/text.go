package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	pdftext "github.com/ledongthuc/pdf"
)

// Thresholds for accepting extracted text as readable
const (
	maxUnprintableRatio = 0.1
	minLetterRatio      = 0.5
	minLowerRatio       = 0.25
)

// pageTexts returns the plain text of every page in order. Font encodings and
// ToUnicode maps are applied, so composite fonts decode to real characters.
func pageTexts(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF content: %v", r)
		}
	}()

	reader, err := pdftext.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pages = make([]string, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i] = strings.TrimSpace(text)
	}
	return pages, nil
}

// readable reports whether pages hold natural-language text rather than raw
// glyph ids. Undecoded composite fonts come out as control bytes, or as runs of
// capitals and digits when the ids happen to fall in the ASCII range.
func readable(pages []string) bool {
	var total, unprintable, letters, upper, lower int
	for _, page := range pages {
		for _, r := range page {
			if unicode.IsSpace(r) {
				continue
			}
			total++
			switch {
			case r == unicode.ReplacementChar || !unicode.IsPrint(r):
				unprintable++
			case unicode.IsLetter(r):
				letters++
				if unicode.IsLower(r) {
					lower++
				} else if unicode.IsUpper(r) {
					upper++
				}
			}
		}
	}

	if total == 0 {
		return false
	}
	if float64(unprintable) > float64(total)*maxUnprintableRatio {
		return false
	}
	if float64(letters) < float64(total)*minLetterRatio {
		return false
	}
	cased := upper + lower
	return cased == 0 || float64(lower) >= float64(cased)*minLowerRatio
}
