// Command place-order places one order from the command line, applying the
// same discounts and courier assignment as the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
	"github.com/sneakyevil96/DatabaseProject/internal/storage/postgres"
)

// itemFlag collects repeated <id>[:qty] values for one product kind.
type itemFlag struct {
	kind  catalog.Kind
	items *[]order.ItemRequest
}

func (f itemFlag) String() string { return "" }

func (f itemFlag) Set(raw string) error {
	item, err := parseItem(f.kind, raw)
	if err != nil {
		return err
	}
	*f.items = append(*f.items, item)
	return nil
}

func parseItem(kind catalog.Kind, raw string) (order.ItemRequest, error) {
	idPart, qtyPart, hasQty := strings.Cut(strings.TrimSpace(raw), ":")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return order.ItemRequest{}, errors.Errorf("invalid %s id %q", kind, idPart)
	}
	qty := 1
	if hasQty {
		qty, err = strconv.Atoi(qtyPart)
		if err != nil {
			return order.ItemRequest{}, errors.Errorf("invalid quantity %q for %s %d", qtyPart, kind, id)
		}
	}
	return order.ItemRequest{Kind: kind, ID: id, Quantity: qty}, nil
}

func receipt(o *order.Order) string {
	return fmt.Sprintf("Order #%d placed. Subtotal: EUR %s | Discounts: EUR %s | Total due: EUR %s",
		o.ID, o.Subtotal.StringFixed(2), o.DiscountTotal.StringFixed(2), o.TotalDue.StringFixed(2))
}

func main() {
	_ = godotenv.Load()

	var (
		req         order.PlaceRequest
		mode        string
		databaseURL string
		timeZone    string
	)
	flag.Int64Var(&req.CustomerID, "customer-id", 0, "customer placing the order (required)")
	flag.Var(itemFlag{kind: catalog.KindPizza, items: &req.Items}, "pizza", "pizza as <id>[:qty], repeatable")
	flag.Var(itemFlag{kind: catalog.KindDrink, items: &req.Items}, "drink", "drink as <id>[:qty], repeatable")
	flag.Var(itemFlag{kind: catalog.KindDessert, items: &req.Items}, "dessert", "dessert as <id>[:qty], repeatable")
	flag.StringVar(&req.DiscountCode, "discount-code", "", "optional discount code")
	flag.StringVar(&mode, "delivery-type", string(order.DeliveryModeDelivery), "delivery or pickup")
	flag.StringVar(&req.Notes, "notes", "", "free-form order notes")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or PIZZERIA_DATABASE_URL / DATABASE_URL env)")
	flag.StringVar(&timeZone, "time-zone", "", "zone for birthday and code validity checks (or PIZZERIA_TIME_ZONE env, default UTC)")
	flag.Parse()
	req.DeliveryMode = order.DeliveryMode(mode)

	databaseURL = firstNonEmpty(databaseURL, os.Getenv("PIZZERIA_DATABASE_URL"), os.Getenv("DATABASE_URL"))
	timeZone = firstNonEmpty(timeZone, os.Getenv("PIZZERIA_TIME_ZONE"), "UTC")

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	o, err := run(ctx, databaseURL, timeZone, req)
	if err != nil {
		lg.Error("Order not placed", zap.String("reason", order.Reason(err)), zap.Error(err))
		cancel()
		os.Exit(1)
	}
	fmt.Println(receipt(o))
}

func run(ctx context.Context, databaseURL, timeZone string, req order.PlaceRequest) (*order.Order, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", timeZone)
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	svc, err := order.NewService(postgres.NewTransactor(pool), order.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return svc.PlaceOrder(ctx, req)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
