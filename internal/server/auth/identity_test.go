package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		header  string
		want    string
	}{
		{name: "valid header", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "extra spaces", header: "  Bearer   abc  ", want: "abc"},
		{name: "empty header", header: "", wantErr: ErrUnauthenticated},
		{name: "scheme only", header: "Bearer", wantErr: ErrUnauthenticated},
		{name: "scheme with blank token", header: "Bearer    ", wantErr: ErrUnauthenticated},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", wantErr: ErrUnauthenticated},
		{name: "raw token", header: "abc.def.ghi", wantErr: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorize(t *testing.T) {
	owner := &Identity{UserID: "u-1"}

	tests := []struct {
		identity *Identity
		wantErr  error
		name     string
		ownerID  string
	}{
		{name: "owner", identity: owner, ownerID: "u-1"},
		{name: "other user", identity: &Identity{UserID: "u-2"}, ownerID: "u-1", wantErr: ErrForbidden},
		{name: "no identity", identity: nil, ownerID: "u-1", wantErr: ErrUnauthenticated},
		{name: "empty identity", identity: &Identity{}, ownerID: "u-1", wantErr: ErrUnauthenticated},
		{name: "resource without owner", identity: owner, ownerID: "", wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.identity, tt.ownerID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIdentity_DisplayName(t *testing.T) {
	assert.Equal(t, "alice", (&Identity{Username: "alice", Email: "a@x.com"}).DisplayName())
	assert.Equal(t, "a@x.com", (&Identity{Email: "a@x.com"}).DisplayName())
}
