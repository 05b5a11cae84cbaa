// Package auth issues and checks the access tokens that gate mutating
// calls. A token names the owner address it may act for.
package auth

import (
	"errors"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shackstack/shackstack/internal/common"
)

// Claims are the standard claims plus the owner address, in checksummed hex.
type Claims struct {
	jwt.RegisteredClaims
	Address string
}

func GenerateToken(address ethcommon.Address, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Address: address.Hex(),
	})

	return token.SignedString(secretKey)
}

// GetAddressFromToken verifies tokenString and returns the address it was
// issued for. Expired tokens yield common.ErrTokenExpired, every other
// failure common.ErrInvalidToken.
func GetAddressFromToken(tokenString string, secretKey []byte) (ethcommon.Address, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ethcommon.Address{}, common.ErrTokenExpired
		}
		return ethcommon.Address{}, common.ErrInvalidToken
	}

	if !token.Valid || !ethcommon.IsHexAddress(claims.Address) {
		return ethcommon.Address{}, common.ErrInvalidToken
	}

	return ethcommon.HexToAddress(claims.Address), nil
}
