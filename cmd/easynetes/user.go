package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"easynetes/internal/config"
	"easynetes/internal/manager"
	"easynetes/internal/middleware"
	"easynetes/internal/models"
	"easynetes/internal/utils"
)

const minPasswordLength = 8

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage console accounts",
	}
	cmd.AddCommand(newUserAddCmd(), newUserPasswdCmd())
	return cmd
}

func openUserStore(cmd *cobra.Command) (*manager.UserStore, error) {
	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return nil, err
	}
	paths := utils.NewPaths(cfg.RootPath)
	if err := paths.DeployRoot(nil); err != nil {
		return nil, err
	}
	store := manager.NewUserStore(paths)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return store, nil
}

// readPassword prompts twice without echo on a terminal. Piped input is read
// as a single line.
func readPassword(cmd *cobra.Command) (string, error) {
	out := cmd.ErrOrStderr()
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		fmt.Fprint(out, "Password: ")
		first, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Confirm password: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return checkPassword(string(first))
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return checkPassword(strings.TrimRight(line, "\r\n"))
}

func checkPassword(pw string) (string, error) {
	if len(pw) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return pw, nil
}

func newUserAddCmd() *cobra.Command {
	var role, email string
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := middleware.SanitizeString(args[0])
			r, ok := models.ParseRole(role)
			if !ok {
				return fmt.Errorf("invalid role %q", role)
			}
			store, err := openUserStore(cmd)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd)
			if err != nil {
				return err
			}
			hash, err := middleware.NewAuthService(middleware.AuthOptions{}).HashPassword(pw)
			if err != nil {
				return err
			}
			if _, err := store.CreateUser(username, hash, r); err != nil {
				return err
			}
			if email != "" {
				if err := store.SetProfile(username, email, "", ""); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", username, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleViewer), "admin, operator or viewer")
	cmd.Flags().StringVar(&email, "email", "", "contact address")
	return cmd
}

func newUserPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set an account password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openUserStore(cmd)
			if err != nil {
				return err
			}
			username := strings.TrimSpace(args[0])
			if _, ok := store.Get(username); !ok {
				return manager.ErrUserNotFound
			}
			pw, err := readPassword(cmd)
			if err != nil {
				return err
			}
			hash, err := middleware.NewAuthService(middleware.AuthOptions{}).HashPassword(pw)
			if err != nil {
				return err
			}
			if err := store.SetPassword(username, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", username)
			return nil
		},
	}
}
