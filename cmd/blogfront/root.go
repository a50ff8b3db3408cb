package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/eringen/blogfront"
	"github.com/eringen/blogfront/gateway"
	"github.com/eringen/blogfront/logging"
	"github.com/eringen/blogfront/session"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

// cli holds the global flags and what they resolve to.
type cli struct {
	cfgFile   string
	apiURL    string
	sessionDB string

	cfg blogfront.SiteConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "blogfront",
		Short: "Browse, write, and serve blog posts",
		Long: "blogfront is the web front of a blog posts service. It also runs a stub\n" +
			"backend for local development and talks to the service from the terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&c.apiURL, "api", "", "posts service base URL (overrides api_base_url)")
	root.PersistentFlags().StringVar(&c.sessionDB, "session-db", "", "where the terminal session is kept (default ~/.config/blogfront/session.db)")

	root.AddCommand(
		newServeCmd(c),
		newStubCmd(c),
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newPostsCmd(c),
		newBrowseCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) load() error {
	cfg, err := blogfront.LoadConfig(c.cfgFile)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIBaseURL = c.apiURL
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	c.cfg = cfg
	return nil
}

func (c *cli) client() *gateway.Client {
	return gateway.New(c.cfg.APIBaseURL, gateway.WithTimeout(c.cfg.RequestTimeout))
}

func (c *cli) sessionPath() (string, error) {
	if c.sessionDB != "" {
		return c.sessionDB, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "blogfront", "session.db"), nil
}

// terminalSession is everything a command needs to talk to the service as
// the signed-in user.
type terminalSession struct {
	*session.Session
	API     gateway.API
	storage *session.SQLiteStorage
}

func (t *terminalSession) Close() error {
	return t.storage.Close()
}

// open restores the durable terminal session. Failures are reported on w.
func (c *cli) open(ctx context.Context, w io.Writer) (*terminalSession, error) {
	path, err := c.sessionPath()
	if err != nil {
		return nil, err
	}
	storage, err := session.OpenSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	n := terminal{w: w}
	api := gateway.Reported(c.client(), n)
	s := session.New(storage, api, n)
	s.Restore(ctx)
	return &terminalSession{Session: s, API: api, storage: storage}, nil
}

// terminal prints notifications as coloured lines.
type terminal struct {
	w io.Writer
}

func (t terminal) Success(msg string) {
	fmt.Fprintln(t.w, successStyle.Render("✓ "+msg))
}

func (t terminal) Error(msg string) {
	fmt.Fprintln(t.w, errorStyle.Render("✗ "+msg))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blogfront version",
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blogfront %s (%s)\n", version, commit)
		},
	}
}
