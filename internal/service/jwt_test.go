package service

import "testing"

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatal(err)
	}

	userID, err := ParseJWT(token)
	if err != nil {
		t.Fatal(err)
	}
	if userID != 42 {
		t.Fatalf("user id = %d, want 42", userID)
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	for _, token := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := ParseJWT(token); err == nil {
			t.Errorf("ParseJWT(%q) accepted garbage", token)
		}
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	InitJWT("secret-one")
	token, err := GenerateJWT(7)
	if err != nil {
		t.Fatal(err)
	}

	InitJWT("secret-two")
	if _, err := ParseJWT(token); err == nil {
		t.Error("token signed with old secret accepted")
	}
}
