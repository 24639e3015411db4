package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/navigation"
)

var (
	client = &account.User{ID: "c1", Metadata: account.Metadata{UserType: account.UserTypeClient}}
	guard  = &account.User{ID: "g1", Metadata: account.Metadata{UserType: account.UserTypeBodyguard}}
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		user     *account.User
		status   bodyguard.Status
		allowed  bool
		redirect string
	}{
		{"home anonymous", "/", nil, "", true, ""},
		{"home client", "/", client, "", true, ""},
		{"become anonymous", "/become-bodyguard", nil, "", true, ""},
		{"become client", "/become-bodyguard", client, "", true, ""},
		{"become pending guard", "/become-bodyguard", guard, bodyguard.StatusPending, false, "/bodyguard-pending"},
		{"become approved guard", "/become-bodyguard", guard, bodyguard.StatusApproved, false, "/bodyguard-dashboard"},
		{"pending anonymous", "/bodyguard-pending", nil, "", false, "/"},
		{"pending client", "/bodyguard-pending", client, "", false, "/old-dashboard"},
		{"pending guard", "/bodyguard-pending", guard, bodyguard.StatusPending, true, ""},
		{"pending guard without record", "/bodyguard-pending", guard, "", true, ""},
		{"pending approved guard", "/bodyguard-pending", guard, bodyguard.StatusApproved, false, "/bodyguard-dashboard"},
		{"dashboard anonymous", "/bodyguard-dashboard", nil, "", false, "/"},
		{"dashboard client", "/bodyguard-dashboard", client, "", false, "/old-dashboard"},
		{"dashboard pending guard", "/bodyguard-dashboard", guard, bodyguard.StatusPending, false, "/bodyguard-pending"},
		{"dashboard approved guard", "/bodyguard-dashboard", guard, bodyguard.StatusApproved, true, ""},
		{"client dashboard anonymous", "/old-dashboard", nil, "", false, "/"},
		{"client dashboard client", "/old-dashboard", client, "", true, ""},
		{"client dashboard guard", "/old-dashboard", guard, bodyguard.StatusApproved, false, "/bodyguard-dashboard"},
		{"unknown", "/admin", client, "", false, "/"},
		{"trailing slash and query", "/old-dashboard/?payment=success", client, "", true, ""},
		{"empty", "", nil, "", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := navigation.Resolve(tc.path, tc.user, tc.status)
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.redirect, d.Redirect)
		})
	}
}

func TestHome(t *testing.T) {
	assert.Equal(t, "/", navigation.Home(nil, ""))
	assert.Equal(t, "/old-dashboard", navigation.Home(client, ""))
	assert.Equal(t, "/bodyguard-pending", navigation.Home(guard, bodyguard.StatusPending))
	assert.Equal(t, "/bodyguard-dashboard", navigation.Home(guard, bodyguard.StatusApproved))
}
