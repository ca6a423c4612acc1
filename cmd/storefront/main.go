package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"storefront/internal/cartstore"
	"storefront/internal/checkout"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/domain"
)

const usageText = `usage: storefront <command> [args]

catalog:
  products                         list available products
  product <id>                     show one product

cart:
  add <id> [-qty n] [-notes text]  add a product to the cart
  remove <id>                      remove every line for a product
  update <id> <qty>                set quantity (0 removes)
  show                             print the cart
  clear                            empty the cart

orders:
  checkout [-payment credit-card|apple-pay|cash]
  history                          list all orders, newest first
  order <id>                       show one order
`

type app struct {
	cfg    config.Config
	logger *log.Logger
	out    io.Writer
	api    *client.Client
	cart   *cartstore.Store
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[storefront] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if os.Getenv("STOREFRONT_DEBUG") == "" {
		logger.SetOutput(io.Discard)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
		api:    client.New(cfg.OrderAPIURL, cfg.ClientTimeout, logger),
	}

	ctx := context.Background()
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return a.products(ctx)
	case "product":
		return a.product(ctx, args)
	case "add":
		return a.withCart(ctx, func() error { return a.add(ctx, args) })
	case "remove":
		return a.withCart(ctx, func() error { return a.remove(args) })
	case "update":
		return a.withCart(ctx, func() error { return a.update(args) })
	case "show":
		return a.withCart(ctx, a.show)
	case "clear":
		return a.withCart(ctx, func() error {
			a.cart.Clear()
			fmt.Fprintln(a.out, "Cart cleared.")
			return nil
		})
	case "checkout":
		return a.withCart(ctx, func() error { return a.checkout(ctx, args) })
	case "history":
		return a.history(ctx)
	case "order":
		return a.order(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usageText)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// withCart opens the cart store for the duration of fn.
func (a *app) withCart(ctx context.Context, fn func() error) error {
	snap, closeSnap := a.snapshotter()
	defer closeSnap()
	a.cart = cartstore.Open(ctx, snap, a.logger)
	return fn()
}

func (a *app) snapshotter() (cartstore.Snapshotter, func()) {
	if a.cfg.RedisAddr == "" {
		return cartstore.NewFileSnapshotter(a.cfg.CartFile), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	return cartstore.NewRedisSnapshotter(rdb, a.cfg.CartSession, a.cfg.CartTTL), func() {
		if err := rdb.Close(); err != nil {
			a.logger.Printf("redis close error=%v", err)
		}
	}
}

func (a *app) products(ctx context.Context) error {
	products, err := a.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.DisplayName(), p.Category, p.Price.StringFixed(2))
	}
	return tw.Flush()
}

func (a *app) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: product <id>")
	}
	p, err := a.api.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n  %s\n  price: %s\n", p.DisplayName(), p.ID, p.Description, p.Price.StringFixed(2))
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	qty := fs.Int("qty", 1, "Quantity to add")
	notes := fs.String("notes", "", "Preparation notes")
	pos, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("usage: add <id> [-qty n] [-notes text]")
	}

	p, err := a.api.GetProduct(ctx, pos[0])
	if err != nil {
		return fmt.Errorf("look up product: %w", err)
	}
	if !p.IsAvailable {
		return fmt.Errorf("product %s is not available", p.ID)
	}
	in := cartstore.FromProduct(*p)
	in.Quantity = *qty
	in.Notes = *notes
	a.cart.AddItem(in)
	fmt.Fprintf(a.out, "Added %s. Cart has %d items, total %s.\n", p.DisplayName(), a.cart.Count(), a.cart.Total().StringFixed(2))
	return nil
}

func (a *app) remove(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <id>")
	}
	a.cart.RemoveItem(args[0])
	fmt.Fprintf(a.out, "Removed %s.\n", args[0])
	return nil
}

func (a *app) update(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: update <id> <qty>")
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	a.cart.UpdateQuantity(args[0], qty)
	return a.show()
}

func (a *app) show() error {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Cart is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL\tNOTES")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", it.ID, it.DisplayName(), it.Quantity,
			it.Price.StringFixed(2), it.Subtotal().StringFixed(2), it.Notes)
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\t\n", a.cart.Count(), a.cart.Total().StringFixed(2))
	return tw.Flush()
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	payment := fs.String("payment", string(checkout.OptionCreditCard), "credit-card, apple-pay or cash")
	if err := fs.Parse(args); err != nil {
		return err
	}

	option := checkout.PaymentOption(*payment)
	switch option {
	case checkout.OptionCreditCard, checkout.OptionApplePay, checkout.OptionCash:
	default:
		return fmt.Errorf("unknown payment option %q", *payment)
	}

	co := checkout.New(a.cart, a.api, a.logger)
	order, err := co.Submit(ctx, option)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s placed (%s). Total %s, ready in about %d minutes.\n",
		order.OrderNumber, order.ID, order.Total.StringFixed(2), order.EstimatedTime)
	return nil
}

func (a *app) history(ctx context.Context) error {
	orders, err := a.api.OrderHistory(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tPLACED\tSTATUS\tPAYMENT\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", o.OrderNumber, o.CreatedAt.Local().Format(time.DateTime),
			o.Status, o.PaymentMethod, len(o.Items), o.Total.StringFixed(2))
	}
	return tw.Flush()
}

func (a *app) order(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: order <id>")
	}
	o, err := a.api.GetOrder(ctx, args[0])
	if err != nil {
		return err
	}
	printOrder(a.out, o)
	return nil
}

func printOrder(w io.Writer, o *domain.Order) {
	fmt.Fprintf(w, "Order %s (%s)\n  status: %s  payment: %s  placed: %s\n",
		o.OrderNumber, o.ID, o.Status, o.PaymentMethod, o.CreatedAt.Local().Format(time.DateTime))
	for _, it := range o.Items {
		line := fmt.Sprintf("  %d x %s @ %s = %s", it.Quantity, it.ProductName, it.Price.StringFixed(2), it.Subtotal.StringFixed(2))
		if it.Notes != "" {
			line += " (" + it.Notes + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "  total: %s\n", o.Total.StringFixed(2))
}

// parseInterspersed lets positional arguments appear before or between flags.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}
