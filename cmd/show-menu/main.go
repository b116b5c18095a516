// Command show-menu prints the active pizzas with their computed prices.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/catalog"
	"github.com/sneakyevil96/DatabaseProject/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	var (
		databaseURL string
		includeCost bool
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or PIZZERIA_DATABASE_URL / DATABASE_URL env)")
	flag.BoolVar(&includeCost, "include-cost", false, "include the ingredient cost column")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("PIZZERIA_DATABASE_URL")
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Stdout, databaseURL, includeCost); err != nil {
		lg.Error("Show menu failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, databaseURL string, includeCost bool) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	m, err := postgres.NewCatalogRepository(pool).Menu(ctx)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}
	return render(out, m.Pizzas, includeCost)
}

func render(out io.Writer, pizzas []catalog.Pizza, includeCost bool) error {
	if len(pizzas) == 0 {
		_, err := fmt.Fprintln(out, "No active pizzas found.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := "Pizza\tFinal Price\t"
	if includeCost {
		header += "Ingredient Cost\t"
	}
	fmt.Fprintln(tw, header+"Flags\t")
	for _, p := range pizzas {
		line := p.Name + "\tEUR " + p.Price.StringFixed(2) + "\t"
		if includeCost {
			line += "EUR " + p.IngredientCost.StringFixed(2) + "\t"
		}
		fmt.Fprintln(tw, line+flags(p)+"\t")
	}
	return tw.Flush()
}

func flags(p catalog.Pizza) string {
	var out []string
	if p.Vegetarian {
		out = append(out, "Vegetarian")
	}
	if p.Vegan {
		out = append(out, "Vegan")
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ", ")
}
