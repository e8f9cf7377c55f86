package util

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testhub_backend/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 7}, Username: "gopher", Role: model.Teacher}
	token, err := GenerateJWT(user, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "gopher" || claims.Role != model.Teacher {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Error("token accepted with wrong secret")
	}

	expired, err := GenerateJWT(user, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(expired, "secret"); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expired token: err = %v, want ErrTokenExpired", err)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"go", true},
		{"go-programming", true},
		{"web-3-0", true},
		{"", false},
		{"Go", false},
		{"go--lang", false},
		{"-go", false},
		{"go_lang", false},
		{"go lang", false},
	}
	for _, tt := range tests {
		if got := IsSlug(tt.in); got != tt.want {
			t.Errorf("IsSlug(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, name := range []string{"Go Programming", "Données & Réseaux", "  C++ / Rust  "} {
		if s := Slugify(name); !IsSlug(s) {
			t.Errorf("Slugify(%q) = %q, not a valid slug", name, s)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in     string
		want   uint
		wantOK bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseID(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseID(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValidateMimeType(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)
	mime, rest, err := ValidateMimeType(strings.NewReader(png), []string{MimeImage})
	if err != nil {
		t.Fatalf("png rejected: %v (%s)", err, mime)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, rest); err != nil || buf.String() != png {
		t.Errorf("returned reader lost data: %q, %v", buf.String(), err)
	}

	if _, _, err := ValidateMimeType(strings.NewReader("plain text"), []string{MimeImage}); err == nil {
		t.Error("text accepted as image")
	}
}

func TestHasExtension(t *testing.T) {
	if !HasExtension("questions.JSON", ".json") {
		t.Error("upper-case extension rejected")
	}
	if HasExtension("questions.json.txt", ".json") {
		t.Error("wrong extension accepted")
	}
}
