package product

import (
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the layout of a product import file:
//
//	products:
//	  - title: Desk lamp
//	    description: Warm white, dimmable
//	    category: Home & Garden
//	    price: 24.90
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Price       string `yaml:"price"`
	ImageURL    string `yaml:"imageUrl"`
}

var importCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Lists all products of a YAML file for the logged in account (- reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		fields, err := parseSeed(r)
		if err != nil {
			return err
		}

		for i, f := range fields {
			p, err := mkt.CreateProduct(f)
			if err != nil {
				return fmt.Errorf("product %d (%q): %w", i+1, f.Title, err)
			}
			output.Muted("listed %s %s", p.ID, p.Title)
		}
		output.Success("imported %d products", len(fields))
		return nil
	},
}

// parseSeed decodes and validates a seed file. Nothing is imported if any entry is invalid.
func parseSeed(r io.Reader) ([]model.ProductFields, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	fields := make([]model.ProductFields, 0, len(seed.Products))
	for i, sp := range seed.Products {
		category, err := model.ParseCategory(sp.Category)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i+1, err)
		}
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d: invalid price %q", i+1, sp.Price)
		}
		f := model.ProductFields{
			Title:       sp.Title,
			Description: sp.Description,
			Category:    category,
			Price:       price,
			ImageURL:    sp.ImageURL,
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("product %d: %w", i+1, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
