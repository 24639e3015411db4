package account

// Custom claim keys written on every account.
const (
	ClaimFullName = "full_name"
	ClaimUserType = "user_type"
	ClaimAdmin    = "admin"
)

func ClaimsFor(meta Metadata) map[string]interface{} {
	return map[string]interface{}{
		ClaimFullName: meta.FullName,
		ClaimUserType: string(meta.UserType),
	}
}

// UserFromClaims rebuilds a User from a verified token's claims.
func UserFromClaims(uid string, claims map[string]interface{}) User {
	u := User{ID: uid}
	if claims == nil {
		u.Metadata.UserType = UserTypeClient
		return u
	}
	if v, ok := claims["email"].(string); ok {
		u.Email = v
	}
	if v, ok := claims[ClaimFullName].(string); ok {
		u.Metadata.FullName = v
	} else if v, ok := claims["name"].(string); ok {
		u.Metadata.FullName = v
	}
	ut, _ := claims[ClaimUserType].(string)
	u.Metadata.UserType = ParseUserType(ut)
	u.Admin = IsAdmin(claims)
	return u
}

// IsAdmin checks the admin flag, a role string, or a roles array.
func IsAdmin(claims map[string]interface{}) bool {
	if claims == nil {
		return false
	}
	if admin, ok := claims[ClaimAdmin].(bool); ok && admin {
		return true
	}
	if role, ok := claims["role"].(string); ok && role == "admin" {
		return true
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok && s == "admin" {
				return true
			}
		}
	}
	return false
}
