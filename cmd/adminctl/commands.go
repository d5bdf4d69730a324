package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"

	"streamnet/internal/model"
	"streamnet/internal/service"
)

type adminLister interface {
	GetMasterAdmin(ctx context.Context, tx *sqlx.Tx) (*model.User, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
}

type commands struct {
	out       io.Writer
	users     *service.UserService
	friends   *service.FriendService
	admins    adminLister
	secretKey string
}

func (c *commands) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "verify":
		return c.verify(ctx)
	case "reconcile":
		return c.reconcile(ctx, args)
	case "bootstrap":
		return c.bootstrap(ctx, args)
	default:
		return fmt.Errorf("unknown command %q (want verify, reconcile or bootstrap)", name)
	}
}

func (c *commands) verify(ctx context.Context) error {
	master, err := c.admins.GetMasterAdmin(ctx, nil)
	if err != nil {
		return err
	}
	admins, err := c.admins.ListAdmins(ctx)
	if err != nil {
		return err
	}

	if master == nil {
		fmt.Fprintln(c.out, "master admin: none (the next create-admin call becomes master)")
	} else {
		fmt.Fprintf(c.out, "master admin: %s <%s> id=%d\n", master.FullName, master.Email, master.ID)
	}

	fmt.Fprintf(c.out, "admins: %d\n", len(admins))
	for _, a := range admins {
		role := "admin"
		if a.IsMasterAdmin {
			role = "master"
		}
		status := ""
		if a.IsBlocked {
			status = " (blocked)"
		}
		fmt.Fprintf(c.out, "  - %d %s <%s> %s%s\n", a.ID, a.FullName, a.Email, role, status)
	}

	if c.secretKey == "" {
		fmt.Fprintln(c.out, "secret key: NOT configured, create-admin is disabled")
	} else {
		fmt.Fprintln(c.out, "secret key: configured")
	}
	return nil
}

func (c *commands) reconcile(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	fs.SetOutput(c.out)
	dryRun := fs.Bool("dry-run", false, "report asymmetric friendships without repairing them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := c.friends.Reconcile(ctx, *dryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "asymmetric friendships: %d\n", len(report.Asymmetric))
	for _, a := range report.Asymmetric {
		fmt.Fprintf(c.out, "  - %d -> %d (missing %d -> %d)\n", a.UserID, a.FriendID, a.FriendID, a.UserID)
	}
	if report.DryRun {
		fmt.Fprintln(c.out, "dry run: nothing repaired")
	} else {
		fmt.Fprintf(c.out, "repaired: %d\n", report.Repaired)
	}
	return nil
}

func (c *commands) bootstrap(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("bootstrap", pflag.ContinueOnError)
	fs.SetOutput(c.out)
	email := fs.String("email", "", "admin email")
	name := fs.String("name", "", "admin full name")
	password := fs.String("password", "", "admin password (at least 6 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" || *password == "" {
		return errors.New("bootstrap requires --email, --name and --password")
	}

	user, isMaster, err := c.users.CreateAdmin(ctx, nil, &model.CreateAdminRequest{
		Email:     *email,
		Password:  *password,
		FullName:  *name,
		SecretKey: c.secretKey,
	})
	if err != nil {
		return err
	}

	role := "admin"
	if isMaster {
		role = "master admin"
	}
	fmt.Fprintf(c.out, "created %s %s <%s> id=%d\n", role, user.FullName, user.Email, user.ID)
	return nil
}
