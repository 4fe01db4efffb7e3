package auth

// Capability checks gating mutation endpoints. Route middleware enforces
// the role checks; CanModifyProject also runs inside the project service
// so ownership is verified against the stored aggregate, not the request.

// CanCreateProject reports whether the caller may create projects.
func CanCreateProject(id Identity) bool {
	return id.Role == RoleProjectOwner
}

// CanModifyProject reports whether the caller may edit the given project.
func CanModifyProject(id Identity, ownerID string) bool {
	return id.UserID == ownerID
}

// CanJoinOrLeave reports whether the caller may join or leave projects.
func CanJoinOrLeave(id Identity) bool {
	return id.Role == RoleUser || id.Role == RoleProjectOwner
}
