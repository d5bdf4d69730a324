package policy

import (
	"errors"
	"testing"

	"streamnet/internal/model"
)

var (
	regular = &model.User{ID: 1}
	blocked = &model.User{ID: 2, IsBlocked: true}
	admin   = &model.User{ID: 3, IsAdmin: true}
	admin2  = &model.User{ID: 4, IsAdmin: true}
	master  = &model.User{ID: 5, IsAdmin: true, IsMasterAdmin: true}
	other   = &model.User{ID: 6}
)

// =============================================================================
// Block / role / delete
// =============================================================================

func TestCheckBlock(t *testing.T) {
	tests := []struct {
		name    string
		actor   *model.User
		target  *model.User
		block   bool
		wantErr error
	}{
		{name: "admin blocks regular", actor: admin, target: regular, block: true},
		{name: "admin unblocks regular", actor: admin, target: blocked, block: false},
		{name: "regular cannot block", actor: regular, target: other, block: true, wantErr: model.ErrAdminRequired},
		{name: "admin blocks admin", actor: admin, target: admin2, block: true, wantErr: model.ErrCannotBlockAdmin},
		{name: "admin unblocks admin", actor: admin, target: admin2, block: false},
		{name: "admin blocks master", actor: admin, target: master, block: true, wantErr: model.ErrCannotBlockMaster},
		{name: "admin unblocks master", actor: admin, target: master, block: false, wantErr: model.ErrCannotBlockMaster},
		{name: "master blocks master", actor: master, target: master, block: true, wantErr: model.ErrCannotBlockMaster},
		{name: "nil actor", actor: nil, target: regular, block: true, wantErr: model.ErrAdminRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBlock(tt.actor, tt.target, tt.block)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckBlock() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckRoleChange(t *testing.T) {
	tests := []struct {
		name    string
		actor   *model.User
		target  *model.User
		isAdmin bool
		wantErr error
	}{
		{name: "master promotes", actor: master, target: regular, isAdmin: true},
		{name: "master demotes admin", actor: master, target: admin, isAdmin: false},
		{name: "admin promotes", actor: admin, target: regular, isAdmin: true, wantErr: model.ErrOnlyMasterCanPromote},
		{name: "admin demotes admin", actor: admin, target: admin2, isAdmin: false},
		{name: "admin demotes master", actor: admin, target: master, isAdmin: false, wantErr: model.ErrCannotModifyMaster},
		{name: "master demotes self", actor: master, target: master, isAdmin: false, wantErr: model.ErrCannotModifyMaster},
		{name: "regular", actor: regular, target: other, isAdmin: false, wantErr: model.ErrAdminRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRoleChange(tt.actor, tt.target, tt.isAdmin)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckRoleChange() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckDelete(t *testing.T) {
	tests := []struct {
		name    string
		actor   *model.User
		target  *model.User
		wantErr error
	}{
		{name: "admin deletes regular", actor: admin, target: regular},
		{name: "admin deletes admin", actor: admin, target: admin2, wantErr: model.ErrCannotDeleteAdmin},
		{name: "master deletes admin", actor: master, target: admin, wantErr: model.ErrCannotDeleteAdmin},
		{name: "admin deletes master", actor: admin, target: master, wantErr: model.ErrCannotDeleteMaster},
		{name: "regular deletes", actor: regular, target: other, wantErr: model.ErrAdminRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDelete(tt.actor, tt.target)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckDelete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckCreateAdmin(t *testing.T) {
	if err := CheckCreateAdmin(nil, nil); err != nil {
		t.Errorf("bootstrap should be allowed without an actor: %v", err)
	}
	if err := CheckCreateAdmin(master, master); err != nil {
		t.Errorf("master should be allowed: %v", err)
	}
	if err := CheckCreateAdmin(admin, master); !errors.Is(err, model.ErrNotMasterAdmin) {
		t.Errorf("plain admin: got %v, want ErrNotMasterAdmin", err)
	}
	if err := CheckCreateAdmin(nil, master); !errors.Is(err, model.ErrNotMasterAdmin) {
		t.Errorf("anonymous: got %v, want ErrNotMasterAdmin", err)
	}
}

// =============================================================================
// Chat / profile / tickets
// =============================================================================

func TestCanChat(t *testing.T) {
	tests := []struct {
		name   string
		actor  *model.User
		other  *model.User
		mutual bool
		want   bool
	}{
		{name: "friends", actor: regular, other: other, mutual: true, want: true},
		{name: "not friends", actor: regular, other: other, mutual: false, want: false},
		{name: "actor blocked", actor: blocked, other: other, mutual: true, want: false},
		{name: "other blocked", actor: regular, other: blocked, mutual: true, want: false},
		{name: "self", actor: regular, other: regular, mutual: true, want: false},
		{name: "nil other", actor: regular, other: nil, mutual: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanChat(tt.actor, tt.other, tt.mutual); got != tt.want {
				t.Errorf("CanChat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireNotBlocked(t *testing.T) {
	if err := RequireNotBlocked(regular); err != nil {
		t.Errorf("regular user: %v", err)
	}
	if err := RequireNotBlocked(blocked); !errors.Is(err, model.ErrAccountBlocked) {
		t.Errorf("blocked user: got %v, want ErrAccountBlocked", err)
	}
}

func TestProfileFor(t *testing.T) {
	target := &model.User{ID: 10, Email: "t@example.com", FullName: "T", PasswordHash: "hash"}

	tests := []struct {
		name      string
		viewer    *model.User
		wantEmail string
	}{
		{name: "self", viewer: &model.User{ID: 10}, wantEmail: "t@example.com"},
		{name: "admin", viewer: admin, wantEmail: "t@example.com"},
		{name: "stranger", viewer: regular, wantEmail: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProfileFor(tt.viewer, target)
			if p.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", p.Email, tt.wantEmail)
			}
			if p.FullName != "T" || p.ID != 10 {
				t.Errorf("unexpected projection: %+v", p)
			}
		})
	}
}

func TestCanViewTicket(t *testing.T) {
	ticket := &model.SupportTicket{ID: 1, UserID: regular.ID}

	if !CanViewTicket(regular, ticket) {
		t.Error("owner should view")
	}
	if !CanViewTicket(admin, ticket) {
		t.Error("admin should view")
	}
	if CanViewTicket(other, ticket) {
		t.Error("stranger should not view")
	}
}
