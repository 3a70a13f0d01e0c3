package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when the login matches no user, so both
// failure paths pay for one bcrypt comparison.
func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = HashPassword("no-such-user-placeholder")
	})
	return dummy
}
