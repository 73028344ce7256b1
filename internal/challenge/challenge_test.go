package challenge

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, c *Challenge) string {
	t.Helper()

	var a, b int
	_, err := fmt.Sscanf(c.Question, "%d + %d", &a, &b)
	require.NoError(t, err)
	require.GreaterOrEqual(t, a, minOperand)
	require.LessOrEqual(t, a, maxOperand)
	require.GreaterOrEqual(t, b, minOperand)
	require.LessOrEqual(t, b, maxOperand)
	return strconv.Itoa(a + b)
}

func TestIssuer_CorrectAnswer(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)

	c, err := iss.Issue()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Token)
	assert.WithinDuration(t, time.Now().Add(time.Minute), c.ExpiresAt, 5*time.Second)

	assert.NoError(t, iss.Verify(c.Token, " "+solve(t, c)+" "))
}

func TestIssuer_WrongAnswerBurnsToken(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)
	c, err := iss.Issue()
	require.NoError(t, err)

	answer := solve(t, c)
	assert.ErrorIs(t, iss.Verify(c.Token, "not a number"), ErrChallengeFailed)
	assert.ErrorIs(t, iss.Verify(c.Token, answer), ErrChallengeFailed)
}

func TestIssuer_TokenIsSingleUse(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)
	c, err := iss.Issue()
	require.NoError(t, err)

	answer := solve(t, c)
	require.NoError(t, iss.Verify(c.Token, answer))
	assert.ErrorIs(t, iss.Verify(c.Token, answer), ErrChallengeFailed)
}

func TestIssuer_Expired(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)
	c, err := iss.Issue()
	require.NoError(t, err)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	assert.ErrorIs(t, iss.Verify(c.Token, solve(t, c)), ErrChallengeFailed)
}

func TestIssuer_ForeignToken(t *testing.T) {
	other := NewIssuer("other-secret", time.Minute)
	c, err := other.Issue()
	require.NoError(t, err)

	iss := NewIssuer("test-secret", time.Minute)
	assert.ErrorIs(t, iss.Verify(c.Token, solve(t, c)), ErrChallengeFailed)
	assert.ErrorIs(t, iss.Verify("", "3"), ErrChallengeFailed)
	assert.ErrorIs(t, iss.Verify("garbage", "3"), ErrChallengeFailed)
}

func TestIssuer_SpentTokensArePruned(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)
	c, err := iss.Issue()
	require.NoError(t, err)
	require.NoError(t, iss.Verify(c.Token, solve(t, c)))
	require.Len(t, iss.spent, 1)

	later := time.Now().Add(time.Hour)
	iss.now = func() time.Time { return later }
	assert.True(t, iss.spend("fresh", later.Add(time.Minute)))
	assert.Len(t, iss.spent, 1, "expired jti entries are dropped")
}
