package command

import (
	"net/url"

	"github.com/urfave/cli/v2"
)

// userView is a user as rendered by the CLI.
type userView struct {
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name" yaml:"name"`
}

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:    "user",
		Aliases: []string{"users"},
		Usage:   "User management commands",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List users",
				Action:  userList,
			},
			{
				Name:  "create",
				Usage: "Create a user (no-op if the email exists)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "User email"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
				},
				Action: userCreate,
			},
			{
				Name:      "update",
				Usage:     "Replace a user's name, keeping the previous version for rollback",
				UsageText: "snapback-cli user update --email EMAIL --name NAME\n" +
					"snapback-cli user update --name NAME EMAIL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "User email (or pass it as the argument)"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New display name", Required: true},
				},
				Action: userUpdate,
			},
			{
				Name:      "rollback",
				Usage:     "Restore the version captured before the last update",
				ArgsUsage: "EMAIL",
				Action:    userRollback,
			},
		},
	}
}

func userList(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users := []userView{}
	if err := EnsureConnected(c).Get(ctx, "/users", &users); err != nil {
		return err
	}
	return render(c, users)
}

func userCreate(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	body := userView{Email: c.String("email"), Name: c.String("name")}
	users := []userView{}
	if err := EnsureConnected(c).Post(ctx, "/users", body, &users); err != nil {
		return err
	}
	return render(c, users)
}

func userUpdate(c *cli.Context) error {
	email := c.String("email")
	if email == "" {
		var err error
		if email, err = emailArg(c); err != nil {
			return err
		}
	} else if c.NArg() > 0 {
		return cli.Exit("pass EMAIL either with --email or as the argument, not both", 1)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	body := map[string]string{"name": c.String("name")}
	users := []userView{}
	if err := EnsureConnected(c).Put(ctx, userPath(email), body, &users); err != nil {
		return err
	}
	return render(c, users)
}

func userRollback(c *cli.Context) error {
	email, err := emailArg(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	users := []userView{}
	if err := EnsureConnected(c).Post(ctx, userPath(email)+"/rollback", nil, &users); err != nil {
		return err
	}
	return render(c, users)
}

// emailArg returns the single positional EMAIL. Flags must come before it.
func emailArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 || c.Args().First() == "" {
		return "", cli.Exit("exactly one EMAIL argument is required", 1)
	}
	return c.Args().First(), nil
}

func userPath(email string) string {
	return "/users/" + url.PathEscape(email)
}
