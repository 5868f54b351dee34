package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kayvinh/messagely/internal/common"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "pw1" {
		t.Fatalf("hash equals plaintext")
	}

	if err := CheckPassword("pw1", hash); err != nil {
		t.Fatalf("CheckPassword error for correct password: %v", err)
	}
}

func TestCheckPassword_Mismatch(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	err = CheckPassword("wrong", hash)
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestHashPassword_Empty(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("", bcrypt.MinCost); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestHashPassword_CostChangeKeepsOldHashesVerifiable(t *testing.T) {
	t.Parallel()

	old, err := HashPassword("pw1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	// a raised work factor only affects newly created hashes
	if err := CheckPassword("pw1", old); err != nil {
		t.Fatalf("old hash no longer verifiable: %v", err)
	}
}
