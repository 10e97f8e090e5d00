package model

// Session describes the signed-in user. It is passed explicitly to the engines
// instead of being read from global state.
type Session struct {
	IsAuthenticated bool
	Role            Role
	MemberID        string
	AccessToken     string
}

// Capabilities lists what a role may do in the console
type Capabilities struct {
	CanRegisterForTeam bool
	CanRegisterForSelf bool
	CanViewAllPendings bool
}

// ResolveCapabilities is the single place where roles map to permissions
func ResolveCapabilities(role Role) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{CanRegisterForTeam: true, CanViewAllPendings: true}
	case RoleLeader:
		return Capabilities{CanRegisterForTeam: true}
	case RoleMember, "":
		return Capabilities{CanRegisterForSelf: true}
	default:
		return Capabilities{}
	}
}

// RequestFlags are per-request markers understood by the transport layer.
// The API client handles SkipGlobalErrorHandling itself and attaches all of
// them to the request context, where transport middleware reads them with
// apiclient.FlagsFromContext.
type RequestFlags struct {
	Retry                   bool
	ManualRetry             bool
	SkipGlobalErrorHandling bool
	SkipCircuitBreaker      bool
}
