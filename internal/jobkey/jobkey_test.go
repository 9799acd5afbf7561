package jobkey

import "testing"

func TestParse(t *testing.T) {
	key, err := Parse("1/2/3")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if key.ProjectID != 1 || key.SpiderID != 2 || key.JobCounter != 3 {
		t.Errorf("unexpected key: %+v", key)
	}
	if key.String() != "1/2/3" {
		t.Errorf("unexpected string form: %s", key.String())
	}
	if key.ProjectKey() != "1" {
		t.Errorf("unexpected project key: %s", key.ProjectKey())
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "1/2", "1/2/3/4", "a/2/3", "1//3"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestAuthRoundTrip(t *testing.T) {
	token := EncodeAuth(Key{1, 2, 3}, "authstr")
	if token != "312f322f333a61757468737472" {
		t.Errorf("unexpected token: %s", token)
	}

	auth, err := DecodeAuth(token)
	if err != nil {
		t.Fatalf("DecodeAuth failed: %v", err)
	}
	if auth != "1/2/3:authstr" {
		t.Errorf("unexpected auth: %s", auth)
	}

	key, secret, err := SplitAuth(auth)
	if err != nil {
		t.Fatalf("SplitAuth failed: %v", err)
	}
	if key != (Key{1, 2, 3}) || secret != "authstr" {
		t.Errorf("unexpected split: %v %q", key, secret)
	}
}

func TestDecodeAuthInvalid(t *testing.T) {
	if _, err := DecodeAuth("not-hex"); err == nil {
		t.Error("expected error for non-hex token")
	}
	if _, _, err := SplitAuth("1/2/3"); err == nil {
		t.Error("expected error for auth without secret")
	}
}
