package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/eringen/blogfront"
	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
	"github.com/eringen/blogfront/gateway"
	"github.com/eringen/blogfront/mutation"
	"github.com/eringen/blogfront/views"
)

func newPostsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List, read, and manage posts",
	}
	cmd.AddCommand(
		newPostsListCmd(c),
		newPostsShowCmd(c),
		newPostsCreateCmd(c),
		newPostsEditCmd(c),
		newPostsDeleteCmd(c),
	)
	return cmd
}

func newPostsListCmd(c *cli) *cobra.Command {
	var q domain.ListQuery
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List one page of posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if q.Limit <= 0 {
				q.Limit = c.cfg.PageSize
			}
			api := gateway.Reported(c.client(), terminal{w: cmd.ErrOrStderr()})
			page, err := api.ListPosts(cmd.Context(), q)
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), page, q.Search, time.Now())
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "posts per page (default page_size)")
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "only posts matching this text")
	return cmd
}

func printPage(w io.Writer, page domain.PostPage, search string, now time.Time) {
	if len(page.Items) == 0 {
		if search != "" {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("No posts match %q.", search)))
		} else {
			fmt.Fprintln(w, dimStyle.Render("No posts yet."))
		}
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "TITLE", "AUTHOR", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, p := range page.Items {
		t.Row(strconv.FormatInt(p.ID, 10), p.Title, p.Author, views.TimeAgo(p.CreatedAt.Time, now))
	}
	fmt.Fprintln(w, t.Render())

	footer := fmt.Sprintf("Page %d of %d · %d posts", page.Page, max(page.TotalPages, 1), page.Total)
	if page.Offline {
		footer += " · offline copy"
	}
	fmt.Fprintln(w, dimStyle.Render(footer))
}

func newPostsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api := gateway.Reported(c.client(), terminal{w: cmd.ErrOrStderr()})
			p, err := api.GetPost(cmd.Context(), id)
			if err != nil {
				return err
			}
			printPost(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func printPost(w io.Writer, p domain.BlogPost) {
	fmt.Fprintln(w, titleStyle.Render(p.Title))
	meta := fmt.Sprintf("by %s · %s", p.Author, views.FormatDate(p.CreatedAt.Time))
	if p.IsUpdated() {
		meta += " · updated " + views.FormatDate(p.UpdatedAt.Time)
	}
	fmt.Fprintln(w, dimStyle.Render(meta))
	if p.HasImage() {
		fmt.Fprintln(w, dimStyle.Render("image: "+p.ImageURL))
	}
	fmt.Fprintln(w)
	for _, para := range p.Paragraphs() {
		fmt.Fprintln(w, para)
	}
}

// draftFlags are the fields create and edit share.
type draftFlags struct {
	title   string
	content string
	image   string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "post title")
	cmd.Flags().StringVar(&f.content, "content", "", "post body, or @file to read it from a file, or - for stdin")
	cmd.Flags().StringVar(&f.image, "image", "", "image file to attach")
}

func (f *draftFlags) draft(cmd *cobra.Command, maxWidth int) (mutation.Draft, error) {
	d := mutation.Draft{Title: f.title}
	content, err := readContent(cmd, f.content)
	if err != nil {
		return d, err
	}
	d.Content = content
	if f.image != "" {
		img, err := readAttachment(f.image, maxWidth)
		if err != nil {
			return d, err
		}
		d.Image = img
	}
	return d, nil
}

func readContent(cmd *cobra.Command, v string) (string, error) {
	switch {
	case v == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	case strings.HasPrefix(v, "@"):
		b, err := os.ReadFile(v[1:])
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	}
	return v, nil
}

// readAttachment loads an image file and shrinks it the way the web form does.
func readAttachment(path string, maxWidth int) (*gateway.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	defer f.Close()
	att, err := blogfront.ProcessImage(f, path, maxWidth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &att, nil
}

func newPostsCreateCmd(c *cli) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := f.draft(cmd, c.cfg.MaxImageWidth)
			if err != nil {
				return err
			}
			ts, err := c.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ts.Close()
			flows := mutation.New(ts.API, ts.Session, terminal{w: cmd.ErrOrStderr()})
			p, _, err := flows.Create(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", p.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newPostsEditCmd(c *cli) *cobra.Command {
	var (
		f           draftFlags
		removeImage bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change one of your posts",
		Long:  "edit replaces the fields you pass and keeps the rest of the post as it is.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := f.draft(cmd, c.cfg.MaxImageWidth)
			if err != nil {
				return err
			}
			d.RemoveImage = removeImage

			n := terminal{w: cmd.ErrOrStderr()}
			ts, err := c.open(cmd.Context(), n.w)
			if err != nil {
				return err
			}
			defer ts.Close()
			flows := mutation.New(ts.API, ts.Session, n)

			current, err := flows.LoadForEdit(cmd.Context(), id)
			if err != nil {
				if errs.Is(err, errs.KindAuth) || errs.Is(err, errs.KindAuthorization) {
					n.Error(errs.Message(err))
				}
				return err
			}
			if !cmd.Flags().Changed("title") {
				d.Title = current.Title
			}
			if !cmd.Flags().Changed("content") {
				d.Content = current.Content
			}
			p, _, err := flows.Update(cmd.Context(), id, d)
			if err != nil {
				return err
			}
			printPost(cmd.OutOrStdout(), p)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&removeImage, "remove-image", false, "drop the current image")
	return cmd
}

func newPostsDeleteCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n := terminal{w: cmd.ErrOrStderr()}
			ts, err := c.open(cmd.Context(), n.w)
			if err != nil {
				return err
			}
			defer ts.Close()

			var confirm mutation.Confirmer = mutation.Confirmed(true)
			if !yes {
				p := newPrompter(cmd)
				confirm = mutation.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
					answer, err := p.ask(prompt + " [y/N]")
					if err != nil {
						return false, err
					}
					answer = strings.ToLower(strings.TrimSpace(answer))
					return answer == "y" || answer == "yes", nil
				})
			}

			_, err = mutation.New(ts.API, ts.Session, n).Delete(cmd.Context(), id, confirm)
			if errors.Is(err, mutation.ErrCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("Cancelled."))
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}
