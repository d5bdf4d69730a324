// Package policy decides whether an actor may act on another account or
// resource. Every function is pure: callers load the state, policy judges it.
package policy

import "streamnet/internal/model"

// CanModerate reports whether actor holds the admin role.
func CanModerate(actor *model.User) bool {
	return actor != nil && actor.IsAdmin
}

// RequireNotBlocked fails for blocked actors.
func RequireNotBlocked(actor *model.User) error {
	if actor != nil && actor.IsBlocked {
		return model.ErrAccountBlocked
	}
	return nil
}

// RequireAdmin fails unless actor is an admin.
func RequireAdmin(actor *model.User) error {
	if !CanModerate(actor) {
		return model.ErrAdminRequired
	}
	return nil
}

// CanChat holds iff the two users are mutual friends and neither is blocked.
func CanChat(actor, other *model.User, mutualFriends bool) bool {
	if actor == nil || other == nil || actor.ID == other.ID {
		return false
	}
	return mutualFriends && !actor.IsBlocked && !other.IsBlocked
}

// ProfileFor projects target as seen by viewer. Email is exposed to the owner
// and to admins only.
func ProfileFor(viewer, target *model.User) model.Profile {
	p := model.Profile{
		ID:               target.ID,
		FullName:         target.FullName,
		ProfilePic:       target.ProfilePic,
		Bio:              target.Bio,
		NativeLanguage:   target.NativeLanguage,
		LearningLanguage: target.LearningLanguage,
		Location:         target.Location,
		IsOnboarded:      target.IsOnboarded,
		IsAdmin:          target.IsAdmin,
		CreatedAt:        target.CreatedAt,
	}
	if viewer != nil && (viewer.ID == target.ID || viewer.IsAdmin) {
		p.Email = target.Email
	}
	return p
}

// CheckBlock validates a block or unblock of target. The master admin can be
// neither blocked nor unblocked; other admins cannot be blocked.
func CheckBlock(actor, target *model.User, block bool) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if target.IsMasterAdmin {
		return model.ErrCannotBlockMaster
	}
	if block && target.IsAdmin {
		return model.ErrCannotBlockAdmin
	}
	return nil
}

// CheckRoleChange validates setting target's admin flag to isAdmin.
func CheckRoleChange(actor, target *model.User, isAdmin bool) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if target.IsMasterAdmin {
		return model.ErrCannotModifyMaster
	}
	if isAdmin && !actor.IsMasterAdmin {
		return model.ErrOnlyMasterCanPromote
	}
	return nil
}

// CheckDelete validates deleting target's account.
func CheckDelete(actor, target *model.User) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if target.IsMasterAdmin {
		return model.ErrCannotDeleteMaster
	}
	if target.IsAdmin {
		return model.ErrCannotDeleteAdmin
	}
	return nil
}

// CheckCreateAdmin validates an admin-creation call once the secret key has
// matched. With no master admin any caller may proceed and the new account
// becomes master. Otherwise only the master admin may create admins.
func CheckCreateAdmin(actor, master *model.User) error {
	if master == nil {
		return nil
	}
	if actor == nil || actor.ID != master.ID {
		return model.ErrNotMasterAdmin
	}
	return nil
}

// CanViewTicket holds for the ticket owner and for admins.
func CanViewTicket(actor *model.User, ticket *model.SupportTicket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	return ticket.UserID == actor.ID || CanModerate(actor)
}
