package domain

import (
	"encoding/json"
	"testing"
)

// FuzzParseIDs feeds arbitrary path and body values through every parser.
// Accepted input must round-trip through String and JSON; every ID kind must
// accept and reject the same inputs.
func FuzzParseIDs(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("{550e8400-e29b-41d4-a716-446655440000}")
	f.Add("urn:uuid:550e8400-e29b-41d4-a716-446655440000")
	f.Add("TDC-2026-10-00042")
	f.Add(string([]byte{0xff, 0xfe}))

	f.Fuzz(func(t *testing.T, input string) {
		docID, errDoc := ParseDocumentID(input)
		_, errUser := ParseUserID(input)
		_, errSession := ParseSessionID(input)
		_, errNotification := ParseNotificationID(input)

		accepted := errDoc == nil
		for _, err := range []error{errUser, errSession, errNotification} {
			if (err == nil) != accepted {
				t.Fatalf("parsers disagree on %q", input)
			}
		}
		if !accepted {
			return
		}
		if docID.IsNil() {
			t.Fatalf("nil id accepted from %q", input)
		}

		again, err := ParseDocumentID(docID.String())
		if err != nil || again != docID {
			t.Fatalf("string round trip of %q failed: %v", input, err)
		}

		b, err := json.Marshal(docID)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded DocumentID
		if err := json.Unmarshal(b, &decoded); err != nil || decoded != docID {
			t.Fatalf("json round trip of %q failed: %v", input, err)
		}
	})
}
