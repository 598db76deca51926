package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueProducesSignedToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, "happenit")

	token, err := issuer.Issue(42, "Ana")

	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))
}

func TestIssueRejectsInvalidUserID(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, "happenit")

	_, err := issuer.Issue(0, "Ana")

	require.ErrorIs(t, err, ErrInvalidSubject)
}
