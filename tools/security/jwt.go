package security

import (
	"fmt"
	"strings"
	"time"

	"PSocial/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const ClaimUserID = "userId"

// Options 控制签名与TTL等参数。
type Options struct {
	Secret []byte        // HMAC key
	Alg    string        // HS256/HS384/HS512 (default HS256)
	TTL    time.Duration // default 24h
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 24 * time.Hour}
}

// Generate signs a session token carrying the user id.
func Generate(opts Options, userID string) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if userID == "" {
		return "", time.Time{}, errs.ErrArgs.WrapMsg("user id is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := jwtlib.MapClaims{
		ClaimUserID: userID,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       exp.Unix(),
	}

	signed, err := jwtlib.NewWithClaims(method, claims).SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the user id claim.
func Verify(opts Options, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errs.ErrTokenMissing.Wrap()
	}
	if _, err := signingMethod(opts.Alg); err != nil {
		return "", err
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// 仅允许 HMAC 家族
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return "", errs.ErrTokenExpired.Wrap()
		}
		return "", errs.ErrTokenInvalid.WrapMsg(err.Error())
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return "", errs.ErrTokenInvalid.WrapMsg("claims type mismatch")
	}
	uid, _ := claims[ClaimUserID].(string)
	if uid == "" {
		return "", errs.ErrTokenInvalid.WrapMsg("userId claim missing")
	}
	return uid, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
