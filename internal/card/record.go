package card

import (
	"bytes"
	"encoding/json"
)

// The payload travels as a single NDEF well-known text record:
//
//	byte 0      status: UTF-8 flag clear, low 6 bits = language code length
//	bytes 1..n  language code (ASCII)
//	rest        UTF-8 text (the JSON object)
//
// The original cards were written by a browser's NDEFReader with a
// language-tagged text record; this framing keeps those cards readable.

const recordLang = "en"

// maxLangLen is the status-byte limit of the text record spec.
const maxLangLen = 0x3F

func wrapTextRecord(text []byte) []byte {
	out := make([]byte, 0, 1+len(recordLang)+len(text))
	out = append(out, byte(len(recordLang)))
	out = append(out, recordLang...)
	out = append(out, text...)
	return out
}

// unwrapTextRecord extracts the text body. A nil or zero-length input is a
// blank (never written) card, not an error.
func unwrapTextRecord(raw []byte) (body []byte, blank bool, err error) {
	if len(raw) == 0 {
		return nil, true, nil
	}
	langLen := int(raw[0] & maxLangLen)
	if len(raw) < 1+langLen {
		return nil, false, invalid("record", "truncated text record header")
	}
	body = raw[1+langLen:]
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, true, nil
	}
	return body, false, nil
}

// jsonDecoder returns a decoder that preserves number precision so balance
// and timestamp fields can be range-checked as int64.
func jsonDecoder(b []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec
}
