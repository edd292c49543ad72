package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeFilter(t *testing.T) {
	tests := []struct {
		name      string
		scope     Scope
		wantSQL   string
		wantArgs  []any
		wantGuest bool
		wantValue any
		wantLabel string
	}{
		{"guest", Guest(), "p.user_id IS NULL", nil, true, nil, "guest"},
		{"owner", Owner(7), "p.user_id = ?", []any{uint64(7)}, false, uint64(7), "user:7"},
		{"zero id is guest", Owner(0), "p.user_id IS NULL", nil, true, nil, "guest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.scope.Filter("p.user_id")
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
			assert.Equal(t, tt.wantGuest, tt.scope.IsGuest())
			assert.Equal(t, tt.wantValue, tt.scope.OwnerValue())
			assert.Equal(t, tt.wantLabel, tt.scope.String())
		})
	}
}

func TestOwnerPtr(t *testing.T) {
	assert.Nil(t, Guest().OwnerPtr())
	p := Owner(3).OwnerPtr()
	if assert.NotNil(t, p) {
		assert.Equal(t, uint64(3), *p)
	}
}
