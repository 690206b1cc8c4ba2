package conf

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/locks/keyonlylocks"
	"github.com/ecogroup/ecgsite/pdfs"
	"github.com/ecogroup/ecgsite/uds"
)

var (
	errUsage = errors.New("wrong number of arguments")
	errBusy  = errors.New("already running")
)

// exclusive runs fn unless another holder has key
func (c *Core) exclusive(key string, fn func() error) error {
	ok, err := keyonlylocks.Do(c.ActionLocks, []string{key}, fn)
	if !ok {
		return fmt.Errorf("%s: %w", key, errBusy)
	}
	return err
}

func (c *Core) refreshCatalogues(ctx context.Context) (n int, err error) {
	err = c.exclusive("catalogue-refresh", func() error {
		list, err := c.CatalogueCache.Refresh(ctx)
		n = len(list)
		return err
	})
	return n, err
}

// Commands builds the control socket commands.
// Prerequisite: PrepareBackend, PrepareI18n, PreparePDFGenerator
func (c *Core) Commands() *uds.CommandStore {
	cmds := uds.NewCommandStore()
	cmds.Register("stats", uds.CmdHnd{
		Desc: "catalog and inbox counters",
		Fn:   c.cmdStats,
	})
	cmds.Register("reload-i18n", uds.CmdHnd{
		Desc: "re-read translation overrides",
		Fn: func(_ context.Context, _ []string, w io.Writer) error {
			if err := c.I18n.Reload(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(w, "translations reloaded")
			return err
		},
	})
	cmds.Register("compose", uds.CmdHnd{
		Desc:  "write a product specification PDF into a directory",
		Usage: "<productID> <dir>",
		Fn:    c.cmdCompose,
	})
	cmds.Register("profile", uds.CmdHnd{
		Desc:  "write the company profile PDF into a directory",
		Usage: "<dir>",
		Fn:    c.cmdProfile,
	})
	if c.CatalogueCache != nil {
		cmds.Register("refresh-catalogues", uds.CmdHnd{
			Desc: "re-list the catalogue bucket into the cache",
			Fn: func(ctx context.Context, _ []string, w io.Writer) error {
				n, err := c.refreshCatalogues(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "%d catalogues\n", n)
				return err
			},
		})
	}
	return cmds
}

func (c *Core) cmdStats(ctx context.Context, _ []string, w io.Writer) error {
	st, err := c.Backend.Stats(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"backend         %s\nproducts        %d\nclients         %d\nprojects        %d (%d active)\nnew messages    %d\npending quotes  %d\n",
		c.Backend.Name(), st.Products, st.Clients, st.Projects, st.ActiveProjects, st.NewMessages, st.PendingQuotes)
	if err != nil {
		return err
	}
	if c.LiveFeed != nil {
		_, err = fmt.Fprintf(w, "live clients    %d\n", c.LiveFeed.Clients())
	}
	return err
}

func (c *Core) cmdCompose(ctx context.Context, args []string, w io.Writer) error {
	if len(args) != 2 {
		return errUsage
	}
	p, err := c.Backend.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	saver := pdfs.DirSaver{Dir: c.Path(args[1])}
	rec := catalog.RecordFromProduct(p)
	target := saver.Path(pdfs.RecordFilename(rec.Name))
	var layout pdfs.Layout
	err = c.exclusive(target, func() (err error) {
		layout, err = c.PDF.ComposeRecordDocument(ctx, rec, pdfs.DefaultOptions(), saver)
		return err
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s (%d pages)\n", target, layout.Pages)
	return err
}

func (c *Core) cmdProfile(ctx context.Context, args []string, w io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	saver := pdfs.DirSaver{Dir: c.Path(args[0])}
	target := saver.Path(pdfs.CompanyProfileFilename)
	var layout pdfs.Layout
	err := c.exclusive(target, func() (err error) {
		layout, err = c.PDF.ComposeCompanyProfileDocument(ctx, saver)
		return err
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s (%d pages)\n", target, layout.Pages)
	return err
}
