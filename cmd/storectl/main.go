package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/remote"
	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
	"github.com/jafarshop/ecostore/internal/storage"
)

func usage() {
	fmt.Println("Usage: storectl <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  dump          print the persisted storefront state")
	fmt.Println("  reload        refresh the saved catalog from the store API")
	fmt.Println("  orders        list the order history")
	fmt.Println("  chat <text>   send one message to the assistant")
	fmt.Println()
	fmt.Println("Example: go run cmd/storectl/main.go chat \"how do I pay by card?\"")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	command := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	// There is no page to read context from
	cfg.Widget.HostMode = config.HostStandalone
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	client := remote.NewClient(cfg.Remote, logger)
	sf := service.NewStorefront(cfg, client, store, logger)

	switch command {
	case "dump":
		err = dump(ctx, sf)
	case "reload":
		err = reload(ctx, sf)
	case "orders":
		listOrders(ctx, os.Stdout, sf, logger)
	case "chat":
		err = chat(ctx, sf, strings.Join(os.Args[2:], " "))
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}
}

func dump(ctx context.Context, sf *service.Storefront) error {
	state, err := sf.Dump(ctx)
	if err != nil {
		return err
	}
	spew.Dump(state)
	return nil
}

func reload(ctx context.Context, sf *service.Storefront) error {
	if err := sf.Reload(ctx); err != nil {
		return err
	}
	fmt.Printf("✅ Catalog reloaded: %d products, %d brands\n", sf.Catalog.Len(), len(sf.Catalog.Brands()))
	return nil
}

// listOrders refreshes only the order history; cart, wishlist and profile
// are left as saved.
func listOrders(ctx context.Context, out io.Writer, sf *service.Storefront, logger *zap.Logger) {
	sf.Account.Restore(ctx)
	if err := sf.Orders.Load(ctx, sf.Account.UserID()); err != nil {
		logger.Debug("Order history unavailable", zap.Error(err))
		sf.Orders.Restore(ctx)
		fmt.Fprintln(out, "⚠️  Store API unavailable, showing saved orders")
	}
	orders := sf.Orders.List()
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders yet")
		return
	}
	for _, o := range orders {
		fmt.Fprintf(out, "#%d  %s  %-10s  %d items  %s\n",
			o.ID,
			o.CreatedAt.Format("02.01.2006"),
			o.Status.Label(),
			o.ItemCount(),
			render.Money(o.GrandTotal()),
		)
	}
}

func chat(ctx context.Context, sf *service.Storefront, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message is empty")
	}

	reply, _ := sf.Widget.SendMessage(ctx, text)
	fmt.Println(reply.Content)
	if reply.Instruction != nil {
		for i, step := range reply.Instruction.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
	}
	return nil
}
