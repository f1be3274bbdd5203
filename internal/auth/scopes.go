package auth

const (
	ScopeOpenID         = "openid"
	ScopeProfile        = "profile"
	ScopeEmail          = "email"
	ScopeGroups         = "groups"
	ScopeDirectoryRead  = "directory:read"
	ScopeDirectoryWrite = "directory:write"
)

// AllScopes is the scope set the Swagger UI requests.
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeGroups,
	ScopeDirectoryRead,
	ScopeDirectoryWrite,
}
