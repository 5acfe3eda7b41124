package utils

import (
	"math"
	"os"
	"plm/src/types"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func GenerateJWT(userId string, role string) (string, error) {
	claims := types.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// ToCents converts a currency amount to the smallest unit for the
// payment provider. Rounds to absorb float drift from fee arithmetic.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// RoundMoney keeps fee and refund figures at two decimal places.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
