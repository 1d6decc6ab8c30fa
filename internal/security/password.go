package security

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt with a tunable cost.
type PasswordHasher struct {
	Cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return PasswordHasher{Cost: cost}
}

func (h PasswordHasher) HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.Cost)
	return string(b), err
}

// CheckPassword compares in constant time with respect to the password contents.
func (h PasswordHasher) CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
