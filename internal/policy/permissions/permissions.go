package permissions

import "github.com/anyme/vcbot/internal/platform"

// IsOperator reports whether member is the configured owner. Authorization is
// this single identity check.
func IsOperator(ownerID string, member *platform.Member) bool {
	if member == nil || ownerID == "" {
		return false
	}
	return member.ID == ownerID
}

// CanRunCommand gates slash commands. Bots never run commands.
func CanRunCommand(ownerID string, member *platform.Member) bool {
	return IsOperator(ownerID, member) && !member.Bot
}
