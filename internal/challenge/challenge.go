package challenge

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrChallengeFailed = errors.New("verification failed")

const (
	minOperand = 1
	maxOperand = 10
	issuer     = "bizboost"
)

// Challenge is a simple sum the visitor must answer before submitting.
type Challenge struct {
	Question  string    `json:"question"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type challengeClaims struct {
	AnswerHash string `json:"ans"`
	jwt.RegisteredClaims
}

// Issuer hands out signed challenges and checks answers. Each token can be
// redeemed once.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	spent map[string]time.Time // jti -> expiry
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		spent:  make(map[string]time.Time),
	}
}

// Issue generates "a + b" with both operands in [1, 10].
func (i *Issuer) Issue() (*Challenge, error) {
	a, err := operand()
	if err != nil {
		return nil, err
	}
	b, err := operand()
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strconv.Itoa(a+b)), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash answer: %w", err)
	}

	now := i.now()
	exp := now.Add(i.ttl)
	claims := challengeClaims{
		AnswerHash: string(hash),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	return &Challenge{
		Question:  fmt.Sprintf("%d + %d", a, b),
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// Verify checks the answer and marks the token as used. A wrong answer also
// burns the token, so the visitor has to fetch a new question.
func (i *Issuer) Verify(token, answer string) error {
	if token == "" {
		return ErrChallengeFailed
	}

	var claims challengeClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeFailed, err)
	}

	if !i.spend(claims.ID, claims.ExpiresAt.Time) {
		return fmt.Errorf("%w: token already used", ErrChallengeFailed)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(claims.AnswerHash), []byte(strings.TrimSpace(answer))); err != nil {
		return ErrChallengeFailed
	}
	return nil
}

func (i *Issuer) spend(id string, exp time.Time) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	for k, e := range i.spent {
		if now.After(e) {
			delete(i.spent, k)
		}
	}

	if _, used := i.spent[id]; used {
		return false
	}
	i.spent[id] = exp
	return true
}

func operand() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxOperand-minOperand+1))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + minOperand, nil
}
