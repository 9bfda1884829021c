package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kozaktomas/face-attendance/internal/catalog"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and migrate the known-faces catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the identities of the configured catalog source",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a catalog from one source into a manifest file or PostgreSQL",
	Long: `Load the catalog from --from (dir or manifest) and store it in --to:

  manifest  write a YAML manifest to the configured catalog file (or --out)
  postgres  upsert every identity into the identities table

Importing from dir computes embeddings once so later starts can skip the
embedding service.`,
	Args: cobra.NoArgs,
	RunE: runCatalogImport,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogImportCmd)

	catalogImportCmd.Flags().String("from", "dir", "Source to read (dir, manifest)")
	catalogImportCmd.Flags().String("to", "manifest", "Destination (manifest, postgres)")
	catalogImportCmd.Flags().String("out", "", "Manifest path (default: CATALOG_FILE)")
}

// catalogRows lists identities in catalog order.
func catalogRows(c *catalog.Catalog) [][]string {
	rows := make([][]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		id := c.At(i)
		rows = append(rows, []string{strconv.Itoa(i + 1), id.Label, strconv.Itoa(len(id.Embedding)), id.Origin})
	}
	return rows
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c, err := loadCatalog(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	if c.Len() == 0 {
		fmt.Printf("Catalog %q is empty\n", cfg.Catalog.Source)
		return nil
	}

	fmt.Println(renderTable(
		[]string{"#", "Label", "Dim", "Origin"},
		catalogRows(c),
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
	fmt.Printf("%d identities\n", c.Len())
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	from := mustGetString(cmd, "from")
	to := mustGetString(cmd, "to")
	if from != "dir" && from != "manifest" {
		return fmt.Errorf("unsupported --from %q (want dir or manifest)", from)
	}

	ctx := context.Background()
	src, release, err := openCatalogSource(ctx, cfg, from)
	if err != nil {
		return err
	}
	defer release()

	c, err := catalog.Load(ctx, src, logger)
	if err != nil {
		return err
	}

	switch to {
	case "manifest":
		out := mustGetString(cmd, "out")
		if out == "" {
			out = cfg.Catalog.File
		}
		if err := catalog.WriteManifest(out, c); err != nil {
			return err
		}
		fmt.Printf("Wrote %d identities to %s\n", c.Len(), out)
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := postgres.NewIdentityRepository(pool)
		if err := repo.SaveCatalog(ctx, c); err != nil {
			return err
		}
		total, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d identities (%d stored)\n", c.Len(), total)
	default:
		return fmt.Errorf("unsupported --to %q (want manifest or postgres)", to)
	}
	return nil
}
