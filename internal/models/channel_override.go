package models

// OverrideTargetType discriminates what an override applies to.
type OverrideTargetType string

const (
	OverrideTargetRole OverrideTargetType = "role"
	OverrideTargetUser OverrideTargetType = "user"
)

// OverrideTarget identifies the role or user an override applies to. Exactly
// one target per override; the type tag makes the two cases mutually
// exclusive at the type level instead of via empty-field sentinels.
type OverrideTarget struct {
	Type OverrideTargetType `json:"type"`
	ID   int64              `json:"id,string"`
}

// ChannelOverride is a channel-scoped allow/deny adjustment layered on top of
// base role grants. Allow and Deny hold permission kind names; they are
// validated when written, and unknown names are skipped when resolved.
type ChannelOverride struct {
	ChannelID int64          `json:"channel_id,string"`
	Target    OverrideTarget `json:"target"`
	Allow     []string       `json:"allow"`
	Deny      []string       `json:"deny"`
}
