package value

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	w := NewWriter("res_test::")
	w.PutString("alice").PutUint32(1001).PutUint8(1).PutBool(true)
	data := w.Bytes()

	r, err := NewReader(data, "res_test::")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	s, err := r.GetString()
	if err != nil || s != "alice" {
		t.Fatalf("GetString: %v %q", err, s)
	}
	u32, err := r.GetUint32()
	if err != nil || u32 != 1001 {
		t.Fatalf("GetUint32: %v %d", err, u32)
	}
	u8, err := r.GetUint8()
	if err != nil || u8 != 1 {
		t.Fatalf("GetUint8: %v %d", err, u8)
	}
	b, err := r.GetBool()
	if err != nil || !b {
		t.Fatalf("GetBool: %v %v", err, b)
	}
}

func TestPackEscapesQuotesAndBackslashes(t *testing.T) {
	w := NewWriter("res_test::")
	w.PutString(`say "hi" \ bye`)
	data := w.Bytes()

	r, err := NewReader(data, "res_test::")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	s, err := r.GetString()
	if err != nil {
		t.Fatalf("GetString: %v", err)
	}
	if s != `say "hi" \ bye` {
		t.Fatalf("got %q", s)
	}
}

func TestPackWrongTagFails(t *testing.T) {
	w := NewWriter("res_user::")
	data := w.PutString("x").Bytes()
	if _, err := NewReader(data, "res_file::"); err == nil {
		t.Fatal("expected tag mismatch error")
	}
}
