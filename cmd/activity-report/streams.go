package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
)

func streamsCommand() *cli.Command {
	return &cli.Command{
		Name:  "streams",
		Usage: "List the streams the event store knows about",
		Action: func(c *cli.Context) error {
			rt, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			streams, err := rt.client.Streams(c.Context)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tHOST\tCREATED")
			for _, s := range streams {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Type, s.Hostname, s.Created.Format(time.DateOnly))
			}
			return tw.Flush()
		},
	}
}
