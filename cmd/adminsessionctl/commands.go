package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	adminsession "github.com/digistarclub/adminsession"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session locally",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the remote session and clear the local vault",
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted session state",
	RunE:  runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow session events until interrupted",
	Long: `Restores the persisted session and then follows it: logins and logouts
performed by other processes sharing the same vault, and the automatic
teardown when the access token expires.`,
	RunE: runWatch,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "administrator email (prompted when omitted)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
}

// prompt reads one line from stdin after printing label.
func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, cleanup, err := buildManager(cfg, nil, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := mgr.Initialize(ctx); err != nil {
		return err
	}
	if snap := mgr.Snapshot(); snap.Authenticated() {
		fmt.Printf("already signed in as %s (%s)\n", snap.Profile.Email, snap.Profile.Role)
		return nil
	}

	email := loginEmail
	if email == "" {
		if email, err = prompt("email: "); err != nil {
			return err
		}
	}
	password := loginPassword
	if password == "" {
		if password, err = prompt("password: "); err != nil {
			return err
		}
	}

	profile, err := mgr.Login(ctx, email, password)
	if err != nil {
		return errors.New(adminsession.UserMessage(err))
	}
	fmt.Printf("signed in as %s (%s)\n", profile.Email, profile.Role)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, cleanup, err := buildManager(cfg, nil, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := mgr.Initialize(ctx); err != nil {
		return err
	}
	if err := mgr.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, cleanup, err := buildManager(cfg, nil, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mgr.Initialize(cmd.Context()); err != nil {
		return err
	}

	snap := mgr.Snapshot()
	fmt.Println("state:", snap.State)
	if snap.Authenticated() {
		fmt.Println("email:", snap.Profile.Email)
		fmt.Println("name:", snap.Profile.Name)
		fmt.Println("role:", snap.Profile.Role)
	}
	if snap.LastError != nil {
		fmt.Println("last error:", snap.LastError)
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sink := adminsession.NewChannelSink(16)
	mgr, cleanup, err := buildManager(cfg, sink, true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mgr.Initialize(ctx); err != nil {
		return err
	}
	fmt.Println("state:", mgr.State())
	fmt.Println("watching for session events, interrupt to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-sink.Events():
			if ev.Profile != nil {
				fmt.Printf("%s %s %s\n", ev.Timestamp.Format("15:04:05"), ev.Type, ev.Profile.Email)
			} else {
				fmt.Printf("%s %s\n", ev.Timestamp.Format("15:04:05"), ev.Type)
			}
		}
	}
}
