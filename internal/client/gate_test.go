package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	protected := Route{Protected: true}
	adminOnly := Route{Protected: true, RequiredRole: "admin"}
	publicOnly := Route{PublicOnly: true}

	user := Profile{ID: 1, Role: "user"}
	admin := Profile{ID: 2, Role: "admin"}

	tests := []struct {
		name    string
		state   State
		profile Profile
		route   Route
		want    Decision
	}{
		{"loading never redirects from protected", StateLoading, Profile{}, protected, Decision{Placeholder: true}},
		{"loading never redirects from public-only", StateLoading, Profile{}, publicOnly, Decision{Placeholder: true}},
		{"uninitialized behaves like loading", StateUninitialized, Profile{}, protected, Decision{Placeholder: true}},
		{"anonymous blocked from protected", StateAnonymous, Profile{}, protected, Decision{Redirect: LoginPath}},
		{"anonymous may view public-only", StateAnonymous, Profile{}, publicOnly, Decision{Render: true}},
		{"authenticated bounced off public-only", StateAuthenticated, user, publicOnly, Decision{Redirect: EventsPath}},
		{"authenticated renders protected", StateAuthenticated, user, protected, Decision{Render: true}},
		{"role mismatch goes to unauthorized", StateAuthenticated, user, adminOnly, Decision{Redirect: UnauthorizedPath}},
		{"matching role renders", StateAuthenticated, admin, adminOnly, Decision{Render: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gate(tt.state, tt.profile, tt.route))
		})
	}
}
