package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/arcanadev/arcana/internal/client/remote"
	"github.com/arcanadev/arcana/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password, creates the account, and
// moves the device's journal into it.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	userID, err := a.auth.Register(ctx, email, string(password))
	if err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	fmt.Println("Success!")
	return a.switchToUser(ctx, userID)
}

// Login prompts for credentials and signs in. On success the device's
// journal is migrated into the account (a noop if already done) and the
// engine restarts under the user identity.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	userID, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	log.Printf("Login successful")
	return a.switchToUser(ctx, userID)
}

// Logout signs out and returns the engine to the anonymous device scope.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.engine.SignOut()
	return a.engine.Start(ctx, a.device)
}

func (a *App) switchToUser(ctx context.Context, userID string) error {
	user := remote.Owner{Kind: remote.OwnerUser, ID: userID}

	if a.mode() == ModeOnline {
		if err := a.migrator.Run(ctx, a.device, user); err != nil {
			log.Printf("Migration incomplete, will retry on next login: %s", err.Error())
		}
	}

	a.engine.SignOut()
	return a.engine.Start(ctx, user)
}
