package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/phone-auth/internal/domain"
)

func TestCodecRoundTripPendingSignup(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	state := Anonymous()
	state.SetPendingSignup("Ada", "+15551234567")

	token, err := codec.Encode(state)
	require.NoError(t, err)

	decoded := codec.Decode(token)
	pending, ok := decoded.PendingSignup()
	require.True(t, ok)
	assert.Equal(t, "Ada", pending.Name)
	assert.Equal(t, "+15551234567", pending.Phone)
}

func TestCodecRoundTripPendingSignin(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	state := Anonymous()
	state.SetSigninPhone("+15551234567")

	token, err := codec.Encode(state)
	require.NoError(t, err)

	decoded := codec.Decode(token)
	phone, ok := decoded.SigninPhone()
	require.True(t, ok)
	assert.Equal(t, "+15551234567", phone)
}

func TestCodecRoundTripAuthenticated(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	state := Anonymous()
	state.SetUser(domain.SessionUser{ID: "u-1", Name: "Ada", Phone: "+15551234567"})

	token, err := codec.Encode(state)
	require.NoError(t, err)

	decoded := codec.Decode(token)
	user, ok := decoded.User()
	require.True(t, ok)
	assert.Equal(t, domain.SessionUser{ID: "u-1", Name: "Ada", Phone: "+15551234567"}, user)
}

func TestCodecRejectsEmptyToken(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	decoded := codec.Decode("")
	assert.Equal(t, KindAnonymous, decoded.Kind())
}

func TestCodecRejectsTamperedToken(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	state := Anonymous()
	state.SetUser(domain.SessionUser{ID: "u-1", Name: "Ada", Phone: "+15551234567"})
	token, err := codec.Encode(state)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	decoded := codec.Decode(tampered)
	assert.Equal(t, KindAnonymous, decoded.Kind())
}

func TestCodecRejectsTokenSignedWithOtherSecret(t *testing.T) {
	signer := NewCodec("other-secret", time.Hour)
	codec := NewCodec("test-secret", time.Hour)

	state := Anonymous()
	state.SetSigninPhone("+15551234567")
	token, err := signer.Encode(state)
	require.NoError(t, err)

	decoded := codec.Decode(token)
	assert.Equal(t, KindAnonymous, decoded.Kind())
}

func TestCodecRejectsExpiredToken(t *testing.T) {
	expired := &Codec{secret: []byte("test-secret"), ttl: -time.Minute}

	state := Anonymous()
	state.SetSigninPhone("+15551234567")
	token, err := expired.Encode(state)
	require.NoError(t, err)

	codec := NewCodec("test-secret", time.Hour)
	decoded := codec.Decode(token)
	assert.Equal(t, KindAnonymous, decoded.Kind())
}
