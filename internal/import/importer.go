package import_pkg

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/propmatch/internal/normalize"
	"github.com/propmatch/internal/store"
)

// CSVImporter loads property and listing CSV dumps into the store. Addresses
// are canonicalized on the way in; missing component fields are recovered
// with libpostal from the single-line address.
type CSVImporter struct {
	store *store.SQLStore
	log   zerolog.Logger
}

// NewCSVImporter creates a CSV importer
func NewCSVImporter(s *store.SQLStore, log zerolog.Logger) *CSVImporter {
	return &CSVImporter{store: s, log: log}
}

// ImportResult summarizes an import run
type ImportResult struct {
	Imported int
	Errors   int
}

// ImportProperties loads a properties CSV. Expected header:
// property_id,team_id,street_part,unit_part,city,state,zipcode,full_address,type_norm
// Only team_id and full_address are mandatory per row.
func (ci *CSVImporter) ImportProperties(ctx context.Context, filename string) (ImportResult, error) {
	return ci.importFile(ctx, filename, func(row map[string]string) error {
		fullAddress := row["full_address"]
		if fullAddress == "" || row["team_id"] == "" {
			return fmt.Errorf("row missing team_id or full_address")
		}

		canonical, tokens := normalize.CanonicalAddress(fullAddress)
		building, unit := normalize.SplitUnit(canonical)

		p := store.Property{
			PropertyID:        row["property_id"],
			TeamID:            row["team_id"],
			StreetPart:        row["street_part"],
			UnitPart:          row["unit_part"],
			City:              row["city"],
			State:             row["state"],
			Zipcode:           row["zipcode"],
			FullAddress:       fullAddress,
			AddressCanonical:  canonical,
			BuildingCanonical: building,
			TokenSet:          strings.Join(tokens, " "),
			TypeNorm:          row["type_norm"],
		}
		if p.PropertyID == "" {
			p.PropertyID = uuid.NewString()
		}
		if p.UnitPart == "" {
			p.UnitPart = unit
		}
		if p.StreetPart == "" {
			fillComponents(&p.StreetPart, &p.UnitPart, &p.City, &p.State, &p.Zipcode, fullAddress)
		}
		if p.Zipcode == "" {
			p.Zipcode = normalize.ExtractZip(canonical)
		}

		return ci.store.UpsertProperty(ctx, p)
	})
}

// ImportListings loads a listings CSV. Expected header:
// listing_id,property_id,team_id,street_part,unit_part,city,state,zipcode,full_address
func (ci *CSVImporter) ImportListings(ctx context.Context, filename string) (ImportResult, error) {
	return ci.importFile(ctx, filename, func(row map[string]string) error {
		fullAddress := row["full_address"]
		if row["team_id"] == "" {
			return fmt.Errorf("row missing team_id")
		}

		canonical, tokens := normalize.CanonicalAddress(fullAddress)
		building, unit := normalize.SplitUnit(canonical)

		l := store.Listing{
			ListingID:         row["listing_id"],
			PropertyID:        row["property_id"],
			TeamID:            row["team_id"],
			StreetPart:        row["street_part"],
			UnitPart:          row["unit_part"],
			City:              row["city"],
			State:             row["state"],
			Zipcode:           row["zipcode"],
			FullAddress:       fullAddress,
			AddressCanonical:  canonical,
			BuildingCanonical: building,
			TokenSet:          strings.Join(tokens, " "),
		}
		if l.ListingID == "" {
			l.ListingID = uuid.NewString()
		}
		if l.UnitPart == "" {
			l.UnitPart = unit
		}
		if l.StreetPart == "" {
			fillComponents(&l.StreetPart, &l.UnitPart, &l.City, &l.State, &l.Zipcode, fullAddress)
		}

		return ci.store.UpsertListing(ctx, l)
	})
}

// fillComponents recovers missing address parts via libpostal
func fillComponents(street, unit, city, state, zip *string, fullAddress string) {
	if fullAddress == "" {
		return
	}
	c := normalize.ParseComponents(fullAddress)
	if *street == "" {
		*street = c.Street
	}
	if *unit == "" {
		*unit = c.Unit
	}
	if *city == "" {
		*city = c.City
	}
	if *state == "" {
		*state = c.State
	}
	if *zip == "" {
		*zip = c.Zip
	}
}

func (ci *CSVImporter) importFile(ctx context.Context, filename string, handle func(map[string]string) error) (ImportResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var result ImportResult
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			ci.log.Warn().Err(err).Msg("skipping malformed CSV record")
			result.Errors++
			continue
		}

		row := make(map[string]string, len(header))
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(value)
			}
		}

		if err := handle(row); err != nil {
			ci.log.Warn().Err(err).Msg("skipping row")
			result.Errors++
			continue
		}

		result.Imported++
		if result.Imported%1000 == 0 {
			ci.log.Info().Int("imported", result.Imported).Str("file", filename).Msg("import progress")
		}
	}

	ci.log.Info().
		Str("file", filename).
		Int("imported", result.Imported).
		Int("errors", result.Errors).
		Msg("import complete")

	return result, nil
}
