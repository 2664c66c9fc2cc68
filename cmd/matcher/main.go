package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/propmatch/internal/config"
	"github.com/propmatch/internal/db"
	"github.com/propmatch/internal/embeddings"
	import_pkg "github.com/propmatch/internal/import"
	"github.com/propmatch/internal/index"
	"github.com/propmatch/internal/logging"
	"github.com/propmatch/internal/matcher"
	"github.com/propmatch/internal/store"
	"github.com/propmatch/internal/web"
)

// app bundles the wired components shared by the subcommands
type app struct {
	conn     *db.Connection
	store    *store.SQLStore
	embedder embeddings.Embedder
	cache    *index.Cache
	engine   *matcher.Engine
	log      zerolog.Logger
}

func newApp() (*app, error) {
	config.LoadEnv()
	log := logging.New()

	conn, err := db.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	gw := store.NewSQLStore(conn.DB, conn.Driver)

	dims := config.GetEnvInt("EMBEDDING_DIM", 384)
	var embedder embeddings.Embedder
	if endpoint := config.GetEnv("EMBEDDING_API", ""); endpoint != "" {
		embedder = embeddings.NewClient(endpoint, dims)
	} else {
		log.Warn().Msg("EMBEDDING_API not set, using local token-hash embedder")
		embedder = embeddings.NewTokenHashEmbedder(dims)
	}

	cache := index.NewCache(gw, embedder, log,
		int64(config.GetEnvInt("INDEX_TEAM_BUDGET_MB", 6))<<20,
		int64(config.GetEnvInt("INDEX_TOTAL_BUDGET_MB", 20))<<20,
	)

	engine := matcher.NewEngine(gw, cache, embedder, matcher.Config{
		MinConfidence: config.GetEnvFloat("MIN_CONFIDENCE", matcher.DefaultMinConfidence),
	}, log)

	return &app{conn: conn, store: gw, embedder: embedder, cache: cache, engine: engine, log: log}, nil
}

func (a *app) close() {
	a.conn.Close()
}

func main() {
	var a *app

	rootCmd := &cobra.Command{
		Use:   "matcher",
		Short: "Listing to property resolution service",
		Long:  `Resolves free-form listing records to canonical property records within a team, with a confidence score`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
	}

	rootCmd.AddCommand(createServeCmd(&a))
	rootCmd.AddCommand(createMatchCmd(&a))
	rootCmd.AddCommand(createBatchCmd(&a))
	rootCmd.AddCommand(createImportCmd(&a))
	rootCmd.AddCommand(createPingCmd(&a))
	rootCmd.AddCommand(createDBCmd(&a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// createServeCmd starts the HTTP API
func createServeCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the resolution HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			webConfig := &web.Config{
				Server: web.ServerConfig{
					Host: config.GetEnv("WEB_HOST", "0.0.0.0"),
					Port: config.GetEnvInt("WEB_PORT", 8080),
				},
			}

			server := web.NewServer(webConfig, (*a).engine, (*a).store, (*a).cache, (*a).log)
			return server.Start()
		},
	}
}

// createMatchCmd resolves a single listing from the command line
func createMatchCmd(a **app) *cobra.Command {
	var listingID, teamID, address, knownPropertyID string
	var save bool

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Resolve a single listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			result, err := (*a).engine.Resolve(ctx, matcher.Request{
				ListingID:       listingID,
				TeamID:          teamID,
				FullAddress:     address,
				KnownPropertyID: knownPropertyID,
			})
			if err != nil {
				return err
			}

			if result.Matched() {
				fmt.Printf("property_id: %s\nconfidence:  %.4f\nmethod:      %s\n",
					result.PropertyID, result.Confidence, result.Method)
				if save {
					if err := (*a).store.SaveResolution(ctx, listingID, result.PropertyID, result.Confidence); err != nil {
						return fmt.Errorf("save resolution: %w", err)
					}
				}
			} else {
				fmt.Println("no match (abstained)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listingID, "listing-id", "", "Listing identifier")
	cmd.Flags().StringVar(&teamID, "team-id", "", "Team identifier")
	cmd.Flags().StringVar(&address, "address", "", "Free-form listing address")
	cmd.Flags().StringVar(&knownPropertyID, "property-id", "", "Known property id (skips matching)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the resolved property id on the listing")
	cmd.MarkFlagRequired("listing-id")
	cmd.MarkFlagRequired("team-id")

	return cmd
}

// createBatchCmd resolves every listing and writes a submission CSV
func createBatchCmd(a **app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve all listings and export results as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer file.Close()

			processor := matcher.NewBatchProcessor((*a).engine, (*a).store, (*a).log)
			stats, err := processor.Run(context.Background(), file)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Batch Resolution Results ===\n")
			fmt.Printf("Total Listings: %d\n", stats.Total)
			fmt.Printf("Pre-Matched:    %d\n", stats.PreMatched)
			fmt.Printf("Matched:        %d\n", stats.Matched)
			fmt.Printf("Abstained:      %d\n", stats.Abstained)
			if stats.Total > 0 {
				fmt.Printf("Coverage:       %.2f%%\n", float64(stats.Matched)/float64(stats.Total)*100)
			}
			fmt.Printf("Output:         %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "submission.csv", "Output CSV path")

	return cmd
}

// createImportCmd loads property and listing CSV dumps
func createImportCmd(a **app) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import property and listing data",
	}

	importCmd.AddCommand(&cobra.Command{
		Use:   "properties [filename]",
		Short: "Import properties CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importer := import_pkg.NewCSVImporter((*a).store, (*a).log)
			result, err := importer.ImportProperties(context.Background(), args[0])
			if err != nil {
				return err
			}
			(*a).cache.InvalidateAll()
			fmt.Printf("Imported %d properties (%d errors)\n", result.Imported, result.Errors)
			return nil
		},
	})

	importCmd.AddCommand(&cobra.Command{
		Use:   "listings [filename]",
		Short: "Import listings CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importer := import_pkg.NewCSVImporter((*a).store, (*a).log)
			result, err := importer.ImportListings(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d listings (%d errors)\n", result.Imported, result.Errors)
			return nil
		},
	})

	return importCmd
}

// createPingCmd tests database connectivity
func createPingCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := (*a).store.GetStats(context.Background())
			if err != nil {
				return err
			}

			fmt.Println("Database connection successful!")
			fmt.Printf("Properties loaded: %d\n", stats.Properties)
			fmt.Printf("Listings loaded:   %d\n", stats.Listings)
			fmt.Printf("Teams:             %d\n", stats.Teams)
			return nil
		},
	}
}

// createDBCmd holds database utility commands
func createDBCmd(a **app) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database utility commands",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).store.InitSchema(context.Background()); err != nil {
				return err
			}
			fmt.Println("Schema applied")
			return nil
		},
	})

	return dbCmd
}
