package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func hashCode(t *testing.T, code string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestEnrolOpenStudy(t *testing.T) {
	store := kv.NewMemoryStore()
	svc := NewService("test-secret", "", store)

	p, tokens, err := svc.Enrol(context.Background(), EnrolRequest{Label: "tablet-3"})
	if err != nil {
		t.Fatalf("enrol: %v", err)
	}
	if p.ID == "" || tokens.AccessToken == "" || tokens.ParticipantID != p.ID {
		t.Fatalf("expected participant and token, got %+v %+v", p, tokens)
	}
	if tokens.ExpiresIn != int64((12 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expiry %d", tokens.ExpiresIn)
	}

	id, err := svc.ValidateAccessToken(tokens.AccessToken)
	if err != nil || id != p.ID {
		t.Fatalf("validate: %v %s", err, id)
	}

	stored, err := svc.Participant(context.Background(), p.ID)
	if err != nil || stored.Label != "tablet-3" {
		t.Fatalf("expected stored participant, got %+v %v", stored, err)
	}
}

func TestEnrolRequiresAccessCode(t *testing.T) {
	svc := NewService("test-secret", hashCode(t, "study-42"), nil)

	if _, _, err := svc.Enrol(context.Background(), EnrolRequest{AccessCode: "wrong"}); !errors.Is(err, ErrInvalidAccessCode) {
		t.Fatalf("expected invalid access code, got %v", err)
	}
	if _, _, err := svc.Enrol(context.Background(), EnrolRequest{}); !errors.Is(err, ErrInvalidAccessCode) {
		t.Fatalf("expected invalid access code for empty code, got %v", err)
	}
	if _, _, err := svc.Enrol(context.Background(), EnrolRequest{AccessCode: "study-42"}); err != nil {
		t.Fatalf("enrol with code: %v", err)
	}
}

type failingStore struct {
	kv.MemoryStore
}

func (*failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestEnrolStoreError(t *testing.T) {
	svc := NewService("test-secret", "", &failingStore{})
	if _, _, err := svc.Enrol(context.Background(), EnrolRequest{}); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestParticipantWithoutStore(t *testing.T) {
	svc := NewService("test-secret", "", nil)
	if _, err := svc.Participant(context.Background(), "x"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestParticipantCorrupt(t *testing.T) {
	store := kv.NewMemoryStore()
	_ = store.Set(context.Background(), participantPrefix+"p1", "{")
	svc := NewService("test-secret", "", store)
	if _, err := svc.Participant(context.Background(), "p1"); err == nil || errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestParseTokenInvalid(t *testing.T) {
	svc := NewService("secret", "", nil)
	if _, err := svc.parseToken("not-a-token"); err == nil {
		t.Fatalf("expected parse error")
	}

	other := NewService("other", "", nil)
	token, _ := other.signToken("p1", time.Hour)
	if _, err := svc.parseToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	svc := NewService("secret", "", nil)
	svc.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	token, err := svc.signToken("p1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateAccessToken(token); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestValidateAccessTokenWithoutParticipant(t *testing.T) {
	svc := NewService("secret", "", nil)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, _ := token.SignedString([]byte("secret"))
	if _, err := svc.ValidateAccessToken(signed); err == nil {
		t.Fatalf("expected missing participant to be rejected")
	}
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	svc := NewService("secret", "", nil)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		ParticipantID: "p1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, _ := token.SignedString([]byte("secret"))
	if _, err := svc.parseToken(signed); err == nil {
		t.Fatalf("expected HS512 token to be rejected")
	}
}
