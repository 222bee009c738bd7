package session

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndResolve(t *testing.T) {
	r := NewTokenResolver("s3cret")

	tok, err := r.Issue(Identity{ParticipantID: "P2"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws?token="+tok, nil)
	id, err := r.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, Identity{ParticipantID: "P2"}, id)

	admin, err := r.Issue(Identity{Admin: true}, 0)
	require.NoError(t, err)
	req = httptest.NewRequest("POST", "/draft/undo", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	id, err = r.Resolve(req)
	require.NoError(t, err)
	assert.True(t, id.Admin)
}

func TestResolveRejects(t *testing.T) {
	r := NewTokenResolver("s3cret")
	other := NewTokenResolver("different")

	forged, err := other.Issue(Identity{ParticipantID: "P2"}, 0)
	require.NoError(t, err)

	r.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := r.Issue(Identity{ParticipantID: "P2"}, time.Hour)
	require.NoError(t, err)
	r.now = time.Now

	cases := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "missing", token: "", wantErr: ErrNoToken},
		{name: "garbage", token: "not-a-jwt", wantErr: ErrInvalidToken},
		{name: "wrong secret", token: forged, wantErr: ErrInvalidToken},
		{name: "expired", token: expired, wantErr: ErrInvalidToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			if tc.token != "" {
				q := req.URL.Query()
				q.Set("token", tc.token)
				req.URL.RawQuery = q.Encode()
			}
			_, err := r.Resolve(req)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSubjectlessTokenIsSpectator(t *testing.T) {
	r := NewTokenResolver("s3cret")

	tok, err := r.Issue(Identity{}, time.Minute)
	require.NoError(t, err)

	id, err := r.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{}, id)
}
