package permissions

import "strings"

// Kind is the string name of a single permission, as it appears in override
// allow/deny lists and in API payloads. The set of kinds is closed.
type Kind string

const (
	KindReadMessages    Kind = "readMessages"
	KindSendMessages    Kind = "sendMessages"
	KindManageMessages  Kind = "manageMessages"
	KindManageChannels  Kind = "manageChannels"
	KindManageRoles     Kind = "manageRoles"
	KindManageServer    Kind = "manageServer"
	KindMentionEveryone Kind = "mentionEveryone"
	KindAdministrator   Kind = "administrator"
)

// AllKinds lists every permission kind in a stable order.
var AllKinds = []Kind{
	KindReadMessages,
	KindSendMessages,
	KindManageMessages,
	KindManageChannels,
	KindManageRoles,
	KindManageServer,
	KindMentionEveryone,
	KindAdministrator,
}

// Permission is a bitfield representing a set of permissions.
type Permission int64

const (
	PermReadMessages    Permission = 1 << 0
	PermSendMessages    Permission = 1 << 1
	PermManageMessages  Permission = 1 << 2
	PermManageChannels  Permission = 1 << 3
	PermManageRoles     Permission = 1 << 4
	PermManageServer    Permission = 1 << 5
	PermMentionEveryone Permission = 1 << 6
	PermAdministrator   Permission = 1 << 7 // bypasses all checks

	// PermAll is every defined permission bit.
	PermAll = PermReadMessages | PermSendMessages | PermManageMessages |
		PermManageChannels | PermManageRoles | PermManageServer |
		PermMentionEveryone | PermAdministrator
)

// Has returns true if p contains all bits in perm.
func (p Permission) Has(perm Permission) bool { return p&perm == perm }

// Add returns p with the bits from perm set.
func (p Permission) Add(perm Permission) Permission { return p | perm }

// Remove returns p with the bits from perm cleared.
func (p Permission) Remove(perm Permission) Permission { return p &^ perm }

var kindBits = map[Kind]Permission{
	KindReadMessages:    PermReadMessages,
	KindSendMessages:    PermSendMessages,
	KindManageMessages:  PermManageMessages,
	KindManageChannels:  PermManageChannels,
	KindManageRoles:     PermManageRoles,
	KindManageServer:    PermManageServer,
	KindMentionEveryone: PermMentionEveryone,
	KindAdministrator:   PermAdministrator,
}

// Bit returns the permission bit for a kind, and false if the kind is not
// one of the defined eight.
func (k Kind) Bit() (Permission, bool) {
	bit, ok := kindBits[k]
	return bit, ok
}

// Valid reports whether k is one of the defined permission kinds.
func (k Kind) Valid() bool {
	_, ok := kindBits[k]
	return ok
}

// FromKinds converts a list of kind names to a bitfield. Unknown names are
// skipped: override rows are validated when written, not when resolved, so a
// stray value must never make resolution fail.
func FromKinds(kinds []string) Permission {
	var p Permission
	for _, k := range kinds {
		if bit, ok := Kind(k).Bit(); ok {
			p = p.Add(bit)
		}
	}
	return p
}

// Kinds returns the kind names set in p, in AllKinds order.
func (p Permission) Kinds() []Kind {
	var kinds []Kind
	for _, k := range AllKinds {
		if p.Has(kindBits[k]) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// String returns a human-readable representation of the permission set,
// listing all set kind names separated by " | ".
func (p Permission) String() string {
	if p == 0 {
		return "none"
	}
	kinds := p.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, " | ")
}

// Grants is the per-kind boolean form of a permission set. It is the wire
// shape for role base grants and for computed effective permissions.
type Grants struct {
	ReadMessages    bool `json:"readMessages"`
	SendMessages    bool `json:"sendMessages"`
	ManageMessages  bool `json:"manageMessages"`
	ManageChannels  bool `json:"manageChannels"`
	ManageRoles     bool `json:"manageRoles"`
	ManageServer    bool `json:"manageServer"`
	MentionEveryone bool `json:"mentionEveryone"`
	Administrator   bool `json:"administrator"`
}

// Bitfield converts g to its bitfield form.
func (g Grants) Bitfield() Permission {
	var p Permission
	if g.ReadMessages {
		p = p.Add(PermReadMessages)
	}
	if g.SendMessages {
		p = p.Add(PermSendMessages)
	}
	if g.ManageMessages {
		p = p.Add(PermManageMessages)
	}
	if g.ManageChannels {
		p = p.Add(PermManageChannels)
	}
	if g.ManageRoles {
		p = p.Add(PermManageRoles)
	}
	if g.ManageServer {
		p = p.Add(PermManageServer)
	}
	if g.MentionEveryone {
		p = p.Add(PermMentionEveryone)
	}
	if g.Administrator {
		p = p.Add(PermAdministrator)
	}
	return p
}

// GrantsFrom expands a bitfield into its per-kind boolean form.
func GrantsFrom(p Permission) Grants {
	return Grants{
		ReadMessages:    p.Has(PermReadMessages),
		SendMessages:    p.Has(PermSendMessages),
		ManageMessages:  p.Has(PermManageMessages),
		ManageChannels:  p.Has(PermManageChannels),
		ManageRoles:     p.Has(PermManageRoles),
		ManageServer:    p.Has(PermManageServer),
		MentionEveryone: p.Has(PermMentionEveryone),
		Administrator:   p.Has(PermAdministrator),
	}
}
