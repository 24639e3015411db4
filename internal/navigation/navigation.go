// Package navigation decides which browser routes a user may open.
package navigation

import (
	"strings"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
)

const (
	PathHome               = "/"
	PathBecomeBodyguard    = "/become-bodyguard"
	PathBodyguardPending   = "/bodyguard-pending"
	PathBodyguardDashboard = "/bodyguard-dashboard"
	PathClientDashboard    = "/old-dashboard"
)

type Decision struct {
	Path     string `json:"path"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

func allow(path string) Decision { return Decision{Path: path, Allowed: true} }

func redirect(path, to string) Decision {
	return Decision{Path: path, Redirect: to}
}

// Resolve evaluates path for user. status is the bodyguard record's status
// and is ignored for clients; an empty status means no record was found.
func Resolve(path string, user *account.User, status bodyguard.Status) Decision {
	path = normalize(path)

	switch path {
	case PathHome:
		return allow(path)
	case PathBecomeBodyguard:
		if user.IsBodyguard() {
			return redirect(path, home(user, status))
		}
		return allow(path)
	case PathBodyguardPending:
		switch {
		case user == nil:
			return redirect(path, PathHome)
		case !user.IsBodyguard():
			return redirect(path, PathClientDashboard)
		case status == bodyguard.StatusApproved:
			return redirect(path, PathBodyguardDashboard)
		}
		return allow(path)
	case PathBodyguardDashboard:
		switch {
		case user == nil:
			return redirect(path, PathHome)
		case !user.IsBodyguard():
			return redirect(path, PathClientDashboard)
		case status != bodyguard.StatusApproved:
			return redirect(path, PathBodyguardPending)
		}
		return allow(path)
	case PathClientDashboard:
		switch {
		case user == nil:
			return redirect(path, PathHome)
		case user.IsBodyguard():
			return redirect(path, home(user, status))
		}
		return allow(path)
	}
	return redirect(path, PathHome)
}

// Home is where a signed-in user lands after authenticating.
func Home(user *account.User, status bodyguard.Status) string {
	if user == nil {
		return PathHome
	}
	return home(user, status)
}

func home(user *account.User, status bodyguard.Status) string {
	if !user.IsBodyguard() {
		return PathClientDashboard
	}
	if status == bodyguard.StatusApproved {
		return PathBodyguardDashboard
	}
	return PathBodyguardPending
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathHome
		}
	}
	return strings.ToLower(path)
}
