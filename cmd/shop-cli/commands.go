package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
	"github.com/jcmexdev/storefront/internal/storefront/api"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
	"github.com/jcmexdev/storefront/internal/storefront/state"
)

var errUsage = errors.New("invalid arguments, run with -h for usage")

type cli struct {
	store  *state.Store
	client *api.Client
	out    io.Writer
}

// parseID reads decimal input as a numeric id and anything else as a string
// id.
func parseID(s string) ident.ID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ident.Numeric(n)
	}
	return ident.String(s)
}

func (c *cli) exec(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "products":
		return c.products(ctx, rest)
	case "categories":
		return c.categories(ctx)
	case "cart":
		return c.cart(ctx, rest)
	case "register":
		if len(rest) != 2 {
			return errUsage
		}
		if err := <-c.store.Register(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		return c.whoami()
	case "login":
		if len(rest) != 2 {
			return errUsage
		}
		if err := <-c.store.Login(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		return c.whoami()
	case "logout":
		if err := <-c.store.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "logged out")
		return nil
	case "whoami":
		if c.loggedIn() {
			_ = <-c.store.FetchProfile(ctx)
		}
		return c.whoami()
	case "reset":
		if len(rest) != 1 {
			return errUsage
		}
		link, err := c.client.RequestPasswordReset(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, link)
		return nil
	case "reset-password":
		if len(rest) != 2 {
			return errUsage
		}
		if err := c.client.ResetPassword(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "password updated")
		return nil
	case "checkout":
		if err := c.requireLogin(); err != nil {
			return err
		}
		if err := <-c.store.Checkout(ctx); err != nil {
			return err
		}
		sess := c.store.State().Orders.Checkout
		fmt.Fprintf(c.out, "checkout session %s\n%s\n", sess.ID, sess.URL)
		return nil
	case "order":
		if err := c.requireLogin(); err != nil {
			return err
		}
		if err := <-c.store.PlaceOrder(ctx); err != nil {
			return err
		}
		placed := c.store.State().Orders.Items
		c.printOrders(placed[len(placed)-1:])
		return nil
	case "orders":
		if err := c.requireLogin(); err != nil {
			return err
		}
		if err := <-c.store.FetchOrders(ctx); err != nil {
			return err
		}
		c.printOrders(c.store.State().Orders.Items)
		return nil
	case "dashboard":
		if err := c.requireLogin(); err != nil {
			return err
		}
		if err := <-c.store.FetchDashboard(ctx); err != nil {
			return err
		}
		d := c.store.State().Admin.Dashboard
		fmt.Fprintf(c.out, "users %d\nproducts %d\ncarts %d\nrevenue %.2f\n",
			d.UsersCount, d.ProductsCount, d.CartCount, d.Revenue)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) loggedIn() bool {
	return c.store.State().Auth.Authenticated
}

func (c *cli) requireLogin() error {
	if !c.loggedIn() {
		return errors.New("not logged in")
	}
	return nil
}

func (c *cli) whoami() error {
	auth := c.store.State().Auth
	if !auth.Authenticated || auth.User == nil {
		fmt.Fprintln(c.out, "guest")
		return nil
	}
	fmt.Fprintf(c.out, "%s (%s)\n", auth.User.Email, auth.User.Role)
	return nil
}

func (c *cli) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(c.out)
	search := fs.String("search", "", "title or description contains")
	category := fs.String("category", catalog.AllCategories, "category")
	sortBy := fs.String("sort", string(catalog.SortNone), "sort order")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := catalog.ParseSortKey(*sortBy)
	if err != nil {
		return err
	}

	if err := <-c.store.FetchProducts(ctx); err != nil {
		return err
	}
	for _, a := range []state.Action{
		state.SetSearch{Term: *search},
		state.SetCategory{Category: *category},
		state.SetSort{Sort: key},
	} {
		if _, err := c.store.Dispatch(ctx, a); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tRATING")
	for _, p := range c.store.State().Products.Filtered {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.1f\n", p.ID, p.Title, p.Category, p.Price, p.Score())
	}
	return tw.Flush()
}

func (c *cli) categories(ctx context.Context) error {
	if err := <-c.store.FetchProducts(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, strings.Join(c.store.State().Products.Categories, "\n"))
	return nil
}

// cart runs a cart subcommand against the server when logged in and against
// the local cart otherwise.
func (c *cli) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}
	sub, rest := args[0], args[1:]
	server := c.loggedIn()

	if server && sub != "add" {
		if err := <-c.store.FetchCart(ctx); err != nil {
			return err
		}
	}

	var err error
	switch {
	case sub == "show":
	case sub == "clear":
		err = c.clear(ctx, server)
	case sub == "add" && (len(rest) == 1 || len(rest) == 2):
		err = c.add(ctx, server, rest)
	case len(rest) == 1 && (sub == "inc" || sub == "dec" || sub == "remove"):
		err = c.step(ctx, server, sub, parseID(rest[0]))
	case sub == "set" && len(rest) == 2:
		qty, convErr := strconv.Atoi(rest[1])
		if convErr != nil {
			return errUsage
		}
		err = c.set(ctx, server, parseID(rest[0]), qty)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	c.printCart()
	return nil
}

func (c *cli) add(ctx context.Context, server bool, args []string) error {
	qty := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		qty = n
	}

	if err := <-c.store.FetchProducts(ctx); err != nil {
		return err
	}
	items := c.store.State().Products.Items
	i := catalog.Index(items, parseID(args[0]))
	if i < 0 {
		return fmt.Errorf("product %s not found", args[0])
	}
	p := items[i]
	item := cart.Item{ID: p.ID, Quantity: qty, Title: p.Title, Price: p.Price, Image: p.Image}

	if server {
		return <-c.store.AddToCartServer(ctx, item)
	}
	_, err := c.store.Dispatch(ctx, state.AddItem{Item: item})
	return err
}

func (c *cli) step(ctx context.Context, server bool, sub string, id ident.ID) error {
	if server {
		switch sub {
		case "inc":
			return <-c.store.IncrementServer(ctx, id)
		case "dec":
			return <-c.store.DecrementServer(ctx, id)
		default:
			return <-c.store.RemoveServer(ctx, id)
		}
	}

	var a state.Action
	switch sub {
	case "inc":
		a = state.IncrementItem{ID: id}
	case "dec":
		a = state.DecrementItem{ID: id}
	default:
		a = state.RemoveItem{ID: id}
	}
	_, err := c.store.Dispatch(ctx, a)
	return err
}

func (c *cli) set(ctx context.Context, server bool, id ident.ID, qty int) error {
	if server {
		return <-c.store.UpdateQuantityServer(ctx, id, qty)
	}
	_, err := c.store.Dispatch(ctx, state.SetQuantity{ID: id, Quantity: qty})
	return err
}

func (c *cli) clear(ctx context.Context, server bool) error {
	if server {
		return <-c.store.ClearServer(ctx)
	}
	_, err := c.store.Dispatch(ctx, state.ClearCart{})
	return err
}

func (c *cli) printCart() {
	items := c.store.State().Cart.Items
	if len(items) == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tPRICE\tSTATE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\n", it.ID, it.Title, it.Quantity, it.Price, it.Sync)
	}
	_ = tw.Flush()
	fmt.Fprintf(c.out, "%d items, total %.2f\n", cart.Count(items), cart.Total(items))
}

func (c *cli) printOrders(orders []api.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "no orders")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tDATE\tLINES\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), len(o.Products), o.Total)
	}
	_ = tw.Flush()
}
