package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eringen/blogfront/domain"
)

// prompter reads answers line by line from the command's stdin.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{r: bufio.NewReader(cmd.InOrStdin()), w: cmd.OutOrStdout()}
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.w, label+": ")
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// fill asks for every empty value in turn.
func (p *prompter) fill(fields ...field) error {
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := p.ask(f.label)
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}

type field struct {
	label string
	value *string
}

func newLoginCmd(c *cli) *cobra.Command {
	var creds domain.LoginCredentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newPrompter(cmd).fill(
				field{"Username", &creds.Username},
				field{"Password", &creds.Password},
			); err != nil {
				return err
			}
			ts, err := c.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ts.Close()
			_, err = ts.Login(cmd.Context(), creds)
			return err
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account name (prompted when empty)")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var creds domain.RegisterCredentials
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newPrompter(cmd).fill(
				field{"Username", &creds.Username},
				field{"Password", &creds.Password},
				field{"Confirm password", &creds.ConfirmPassword},
			); err != nil {
				return err
			}
			ts, err := c.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ts.Close()
			if _, err := ts.Register(cmd.Context(), creds); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("Next: blogfront login -u "+creds.Username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account name (prompted when empty)")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&creds.ConfirmPassword, "confirm", "", "password again (prompted when empty)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := c.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ts.Close()
			ts.Logout(cmd.Context())
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := c.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ts.Close()
			out := cmd.OutOrStdout()
			u := ts.User()
			if !ts.IsAuthenticated() || u == nil {
				fmt.Fprintln(out, dimStyle.Render("Not logged in"))
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render(u.Username), dimStyle.Render(fmt.Sprintf("(id %d)", u.ID)))
			return nil
		},
	}
}
