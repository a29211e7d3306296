package permissions

import "github.com/parley-chat/parley/internal/models"

// ResolveServer computes server-wide permissions for a member.
//  1. Server owner gets everything.
//  2. OR all assigned role grants together (roles never subtract from each
//     other; position does not tie-break this merge).
//  3. If the union includes administrator, return PermAll.
//
// A user with no roles gets no permissions. Non-members must be rejected by
// the caller before this point.
func ResolveServer(isOwner bool, roles []models.Role) Permission {
	if isOwner {
		return PermAll
	}

	var perms Permission
	for _, role := range roles {
		perms = perms.Add(Permission(role.Permissions))
	}

	if perms.Has(PermAdministrator) {
		return PermAll
	}
	return perms
}

// ResolveChannel computes effective permissions for a member in a channel by
// layering channel overrides on top of the server-wide result:
//  4. Role-scoped overrides, aggregated: (base ∪ roleAllow) \ roleDeny.
//     A deny from any held role's override beats an allow from another.
//  5. User-scoped overrides for this user on top, same deny-wins rule:
//     (step4 ∪ userAllow) \ userDeny.
//
// Overrides targeting roles the user does not hold, or other users, are
// ignored here even if the caller failed to pre-filter them. If any stage
// ends up granting administrator, that cascades to everything.
func ResolveChannel(isOwner bool, roles []models.Role, overrides []models.ChannelOverride, userID int64) Permission {
	perms := ResolveServer(isOwner, roles)
	if perms.Has(PermAdministrator) {
		return PermAll
	}

	held := make(map[int64]struct{}, len(roles))
	for _, role := range roles {
		held[role.ID] = struct{}{}
	}

	var roleAllow, roleDeny, userAllow, userDeny Permission
	for i := range overrides {
		o := &overrides[i]
		switch o.Target.Type {
		case models.OverrideTargetRole:
			if _, ok := held[o.Target.ID]; ok {
				roleAllow = roleAllow.Add(FromKinds(o.Allow))
				roleDeny = roleDeny.Add(FromKinds(o.Deny))
			}
		case models.OverrideTargetUser:
			if o.Target.ID == userID {
				userAllow = userAllow.Add(FromKinds(o.Allow))
				userDeny = userDeny.Add(FromKinds(o.Deny))
			}
		}
	}

	perms = perms.Add(roleAllow).Remove(roleDeny)
	perms = perms.Add(userAllow).Remove(userDeny)

	if perms.Has(PermAdministrator) {
		return PermAll
	}
	return perms
}
