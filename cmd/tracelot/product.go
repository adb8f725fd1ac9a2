// Product commands manage the product catalog.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/types"
)

var (
	flagProductCompany   string
	flagProductCategory  string
	flagProductUnit      string
	flagProductShelfLife int
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage the product catalog",
}

var productAddCmd = &cobra.Command{
	Use:   "add <code> <name>",
	Short: "Register a product",
	Long: `Add registers a product in the catalog.

Example:
  tracelot product add ROMA "Roma Tomatoes" --category produce --shelf-life 14`,
	Args: cobra.ExactArgs(2),
	RunE: runProductAdd,
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered products",
	Args:  cobra.NoArgs,
	RunE:  runProductList,
}

func init() {
	productAddCmd.Flags().StringVar(&flagProductCompany, "company", "", "owning company ID")
	productAddCmd.Flags().StringVar(&flagProductCategory, "category", "", "product category")
	productAddCmd.Flags().StringVar(&flagProductUnit, "unit", "", "canonical unit (default kg)")
	productAddCmd.Flags().IntVar(&flagProductShelfLife, "shelf-life", 0, "shelf life in days (0 = never expires)")

	productCmd.AddCommand(productAddCmd)
	productCmd.AddCommand(productListCmd)
}

func runProductAdd(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	p := &types.Product{
		CompanyID:     flagProductCompany,
		Code:          args[0],
		Name:          args[1],
		Category:      flagProductCategory,
		CanonicalUnit: flagProductUnit,
		ShelfLifeDays: flagProductShelfLife,
	}
	if err := engine.RegisterProduct(p); err != nil {
		return fmt.Errorf("register product: %w", err)
	}

	if flagJSON {
		return printJSON(p)
	}
	fmt.Printf("registered product %s (%s)\n", p.Code, p.ProductID)
	return nil
}

func runProductList(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	products, err := engine.Products()
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	if flagJSON {
		return printJSON(products)
	}
	for _, p := range products {
		fmt.Printf("%-12s %-30s unit=%s shelf=%dd  %s\n",
			p.Code, p.Name, p.CanonicalUnit, p.ShelfLifeDays, p.ProductID)
	}
	return nil
}
