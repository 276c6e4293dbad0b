package complaint

import "testing"

func TestNextSerial(t *testing.T) {
	cases := map[int]string{
		0:    "C0001",
		41:   "C0042",
		9998: "C9999",
		9999: "C10000",
	}
	for count, want := range cases {
		if got := NextSerial(count); got != want {
			t.Errorf("NextSerial(%d) = %q, want %q", count, got, want)
		}
	}
}

func TestParseSerialNumber(t *testing.T) {
	n, ok := ParseSerialNumber("C0042")
	if !ok || n != 42 {
		t.Fatalf("expected 42, got %d ok=%v", n, ok)
	}
	n, ok = ParseSerialNumber("c10000")
	if !ok || n != 10000 {
		t.Fatalf("expected 10000, got %d ok=%v", n, ok)
	}
	for _, bad := range []string{"", "C", "42", "C-1", "CX12", "D0001"} {
		if _, ok := ParseSerialNumber(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestNormalizeSheetSerial(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "C0007", want: "C0007", ok: true},
		{raw: "c0012", want: "C0012", ok: true},
		{raw: "7", want: "C0007", ok: true},
		{raw: "7.0", want: "C0007", ok: true},
		{raw: "12345", want: "C12345", ok: true},
		{raw: "", ok: false},
		{raw: "0", ok: false},
		{raw: "7.5", ok: false},
		{raw: "abc", ok: false},
	}
	for _, tc := range cases {
		got, ok := NormalizeSheetSerial(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizeSheetSerial(%q) = %q,%v want %q,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
