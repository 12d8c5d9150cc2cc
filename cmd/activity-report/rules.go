package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"github.com/urfave/cli/v2"
)

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Manage category rules in the local SQLite store",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List rules in evaluation order",
				Action: rulesList,
			},
			{
				Name:  "add",
				Usage: "Add a rule",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "category path, e.g. 'Work > Coding'"},
					&cli.StringFlag{Name: "regex", Required: true},
					&cli.StringFlag{Name: "color"},
					&cli.IntFlag{Name: "score"},
					&cli.IntFlag{Name: "position", Usage: "insert at this position instead of appending"},
				},
				Action: rulesAdd,
			},
			{
				Name:  "update",
				Usage: "Change fields of a rule",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "regex"},
					&cli.StringFlag{Name: "color"},
					&cli.IntFlag{Name: "score"},
					&cli.IntFlag{Name: "position"},
				},
				Action: rulesUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a rule",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
				},
				Action: rulesDelete,
			},
		},
	}
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, ">") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func withStore(c *cli.Context, fn func(rt *deps) error) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.openStore(); err != nil {
		return err
	}
	return fn(rt)
}

func rulesList(c *cli.Context) error {
	return withStore(c, func(rt *deps) error {
		rules, err := rt.ruleRepo.List(c.Context)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tID\tCATEGORY\tREGEX")
		for i, r := range rules {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, r.ID, r.Path(), r.Regex)
		}
		return tw.Flush()
	})
}

func rulesAdd(c *cli.Context) error {
	return withStore(c, func(rt *deps) error {
		req := &models.CreateCategoryRuleRequest{
			Name:  splitPath(c.String("name")),
			Regex: c.String("regex"),
			Color: c.String("color"),
		}
		if c.IsSet("score") {
			score := c.Int("score")
			req.Score = &score
		}
		if c.IsSet("position") {
			pos := c.Int("position")
			req.Position = &pos
		}
		rule, err := rt.ruleRepo.Create(c.Context, req)
		if err != nil {
			return err
		}
		fmt.Printf("Created rule %s (%s)\n", rule.ID, rule.Path())
		return nil
	})
}

func rulesUpdate(c *cli.Context) error {
	return withStore(c, func(rt *deps) error {
		req := &models.UpdateCategoryRuleRequest{}
		if c.IsSet("name") {
			req.Name = splitPath(c.String("name"))
		}
		if c.IsSet("regex") {
			v := c.String("regex")
			req.Regex = &v
		}
		if c.IsSet("color") {
			v := c.String("color")
			req.Color = &v
		}
		if c.IsSet("score") {
			v := c.Int("score")
			req.Score = &v
		}
		if c.IsSet("position") {
			v := c.Int("position")
			req.Position = &v
		}
		rule, err := rt.ruleRepo.Update(c.Context, c.String("id"), req)
		if err != nil {
			return err
		}
		fmt.Printf("Updated rule %s (%s)\n", rule.ID, rule.Path())
		return nil
	})
}

func rulesDelete(c *cli.Context) error {
	return withStore(c, func(rt *deps) error {
		if err := rt.ruleRepo.Delete(c.Context, c.String("id")); err != nil {
			return err
		}
		fmt.Printf("Deleted rule %s\n", c.String("id"))
		return nil
	})
}
