package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"streamnet/internal/model"
	"streamnet/internal/repository/memory"
	"streamnet/internal/service"
)

type nopSync struct{}

func (nopSync) UserChanged(ctx context.Context, u *model.User) {}
func (nopSync) UserDeleted(ctx context.Context, id int64)      {}

type avatar struct{}

func (avatar) RandomAvatar() string { return "https://avatars.test/1.png" }

func newCommands(t *testing.T, secret string) (*commands, *memory.Store, *bytes.Buffer) {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	log := zap.NewNop()
	out := &bytes.Buffer{}

	return &commands{
		out:       out,
		users:     service.NewUserService(repos.Tx, repos.Users, service.NewValidator(), avatar{}, nopSync{}, secret, log),
		friends:   service.NewFriendService(repos.Tx, repos.Users, repos.Friends, log),
		admins:    repos.Users,
		secretKey: secret,
	}, store, out
}

func TestBootstrapThenVerify(t *testing.T) {
	cmd, _, out := newCommands(t, "s3cret")
	ctx := context.Background()

	err := cmd.dispatch(ctx, "bootstrap", []string{"--email", "root@example.com", "--name", "Root", "--password", "secret123"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if !strings.Contains(out.String(), "created master admin Root") {
		t.Errorf("bootstrap output = %q", out.String())
	}

	out.Reset()
	err = cmd.dispatch(ctx, "bootstrap", []string{"--email", "two@example.com", "--name", "Two", "--password", "secret123"})
	if !errors.Is(err, model.ErrNotMasterAdmin) {
		t.Errorf("second bootstrap err = %v, want NOT_MASTER_ADMIN", err)
	}

	out.Reset()
	if err := cmd.dispatch(ctx, "verify", nil); err != nil {
		t.Fatalf("verify: %v", err)
	}
	got := out.String()
	for _, want := range []string{"master admin: Root <root@example.com>", "admins: 1", "secret key: configured"} {
		if !strings.Contains(got, want) {
			t.Errorf("verify output missing %q:\n%s", want, got)
		}
	}
}

func TestBootstrapRequiresSecret(t *testing.T) {
	cmd, _, _ := newCommands(t, "")

	err := cmd.dispatch(context.Background(), "bootstrap", []string{"--email", "root@example.com", "--name", "Root", "--password", "secret123"})
	if !errors.Is(err, model.ErrBadSecretKey) {
		t.Errorf("err = %v, want BAD_SECRET_KEY", err)
	}
}

func TestBootstrapRequiresFlags(t *testing.T) {
	cmd, _, _ := newCommands(t, "s3cret")

	if err := cmd.dispatch(context.Background(), "bootstrap", []string{"--email", "root@example.com"}); err == nil {
		t.Error("expected an error for missing flags")
	}
}

func TestVerifyWithoutMaster(t *testing.T) {
	cmd, _, out := newCommands(t, "")

	if err := cmd.dispatch(context.Background(), "verify", nil); err != nil {
		t.Fatalf("verify: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "master admin: none") || !strings.Contains(got, "NOT configured") {
		t.Errorf("verify output = %q", got)
	}
}

func TestReconcile(t *testing.T) {
	cmd, store, out := newCommands(t, "s3cret")
	ctx := context.Background()

	a, err := cmd.users.Signup(ctx, &model.SignupRequest{Email: "a@example.com", Password: "secret123", FullName: "A"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	b, err := cmd.users.Signup(ctx, &model.SignupRequest{Email: "b@example.com", Password: "secret123", FullName: "B"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	store.AddDirected(a.ID, b.ID)

	if err := cmd.dispatch(ctx, "reconcile", []string{"--dry-run"}); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out.String(), "asymmetric friendships: 1") || !strings.Contains(out.String(), "nothing repaired") {
		t.Errorf("dry run output = %q", out.String())
	}

	out.Reset()
	if err := cmd.dispatch(ctx, "reconcile", nil); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !strings.Contains(out.String(), "repaired: 1") {
		t.Errorf("reconcile output = %q", out.String())
	}

	out.Reset()
	if err := cmd.dispatch(ctx, "reconcile", []string{"--dry-run"}); err != nil {
		t.Fatalf("second dry run: %v", err)
	}
	if !strings.Contains(out.String(), "asymmetric friendships: 0") {
		t.Errorf("after repair output = %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd, _, _ := newCommands(t, "")
	if err := cmd.dispatch(context.Background(), "frobnicate", nil); err == nil {
		t.Error("expected error for unknown command")
	}
}
