package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/totegamma/enovia-go/internal/infra/gateway"
	"github.com/totegamma/enovia-go/internal/infra/providers"
	"github.com/totegamma/enovia-go/modeler"
)

var kindsCmd = &cobra.Command{
	Use:         "kinds",
	Short:       "List the resource kinds get, search and mirror accept",
	Annotations: map[string]string{"config": "none"},
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range gateway.KindNames() {
			k, _ := gateway.LookupKind(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-15s %-24s %s\n", k.Name, k.Definition.Type, k.FetchMask)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <kind> <id>",
	Short: "Read one object with its detailed mask",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := newGateway()
		if err != nil {
			return err
		}
		obj, err := g.Get(cmd.Context(), args[0], args[1], true)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), obj)
	},
}

var (
	searchSkip int
	searchTop  int
)

var searchCmd = &cobra.Command{
	Use:   "search <kind> [text...]",
	Short: "Run one search window",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := newGateway()
		if err != nil {
			return err
		}
		rows, err := g.SearchPage(cmd.Context(), args[0], modeler.Query{
			Text: strings.Join(args[1:], " "),
			Skip: searchSkip,
			Top:  searchTop,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rows)
	},
}

var csrfCmd = &cobra.Command{
	Use:   "csrf",
	Short: "Check the session by fetching a CSRF token",
	RunE: func(cmd *cobra.Command, args []string) error {
		mc, err := providers.NewMemcache(conf.Server)
		if err != nil {
			return err
		}
		cl, err := providers.NewClient(conf, mc, logger)
		if err != nil {
			return err
		}
		token, err := cl.CSRFToken(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchSkip, "skip", 0, "rows to skip")
	searchCmd.Flags().IntVar(&searchTop, "top", modeler.DefaultPageSize, "rows to return")
}

func newGateway() (*gateway.ModelerGateway, error) {
	mc, err := providers.NewMemcache(conf.Server)
	if err != nil {
		return nil, err
	}
	cl, err := providers.NewClient(conf, mc, logger)
	if err != nil {
		return nil, err
	}
	return providers.NewModelerGateway(cl, conf.PLM), nil
}
