package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SQLStore implements Gateway over database/sql. Queries are written with ?
// placeholders and rebound to $n for postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open connection. driver is "postgres" or "sqlite".
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// InitSchema creates the tables and indexes if they do not exist
func (s *SQLStore) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// GetListingProperty returns the pre-resolved property_id for a listing
func (s *SQLStore) GetListingProperty(ctx context.Context, listingID string) (string, error) {
	var propertyID sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT property_id FROM listing WHERE listing_id = ?
	`), listingID).Scan(&propertyID)

	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", hardErr("get listing property", err)
	}
	return propertyID.String, nil
}

// FindExact looks up a property by canonical address within a team
func (s *SQLStore) FindExact(ctx context.Context, teamID, addressCanonical string) (string, error) {
	return s.findByColumn(ctx, teamID, "address_canonical", addressCanonical)
}

// FindBuilding looks up a property by unit-stripped canonical address within a team
func (s *SQLStore) FindBuilding(ctx context.Context, teamID, buildingCanonical string) (string, error) {
	return s.findByColumn(ctx, teamID, "building_canonical", buildingCanonical)
}

func (s *SQLStore) findByColumn(ctx context.Context, teamID, column, value string) (string, error) {
	if value == "" {
		return "", ErrNotFound
	}

	// Smallest property_id wins when several rows share an address,
	// keeping results reproducible
	var propertyID string
	err := s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(`
		SELECT property_id FROM properties
		WHERE team_id = ? AND %s = ?
		ORDER BY property_id
		LIMIT 1
	`, column)), teamID, value).Scan(&propertyID)

	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", hardErr(fmt.Sprintf("find property by %s", column), err)
	}
	return propertyID, nil
}

// ListProperties returns every property belonging to a team
func (s *SQLStore) ListProperties(ctx context.Context, teamID string) ([]Property, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT property_id, team_id,
		       COALESCE(street_part, ''), COALESCE(unit_part, ''),
		       COALESCE(city, ''), COALESCE(state, ''), COALESCE(zipcode, ''),
		       COALESCE(full_address, ''), COALESCE(address_canonical, ''),
		       COALESCE(building_canonical, ''), COALESCE(token_set, ''),
		       COALESCE(type_norm, '')
		FROM properties
		WHERE team_id = ?
		ORDER BY property_id
	`), teamID)
	if err != nil {
		return nil, hardErr("list properties", err)
	}
	defer rows.Close()

	var properties []Property
	for rows.Next() {
		var p Property
		err := rows.Scan(
			&p.PropertyID, &p.TeamID, &p.StreetPart, &p.UnitPart,
			&p.City, &p.State, &p.Zipcode, &p.FullAddress,
			&p.AddressCanonical, &p.BuildingCanonical, &p.TokenSet, &p.TypeNorm,
		)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// ListListings returns all listings ordered by listing_id
func (s *SQLStore) ListListings(ctx context.Context) ([]Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT listing_id, COALESCE(property_id, ''), team_id,
		       COALESCE(street_part, ''), COALESCE(unit_part, ''),
		       COALESCE(city, ''), COALESCE(state, ''), COALESCE(zipcode, ''),
		       COALESCE(full_address, ''), COALESCE(address_canonical, ''),
		       COALESCE(building_canonical, ''), COALESCE(token_set, '')
		FROM listing
		ORDER BY listing_id
	`)
	if err != nil {
		return nil, hardErr("list listings", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		err := rows.Scan(
			&l.ListingID, &l.PropertyID, &l.TeamID, &l.StreetPart, &l.UnitPart,
			&l.City, &l.State, &l.Zipcode, &l.FullAddress,
			&l.AddressCanonical, &l.BuildingCanonical, &l.TokenSet,
		)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// SaveResolution records a resolved property_id and confidence on a listing
func (s *SQLStore) SaveResolution(ctx context.Context, listingID, propertyID string, confidence float64) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE listing SET property_id = ?, confidence = ? WHERE listing_id = ?
	`), propertyID, confidence, listingID)
	if err != nil {
		return fmt.Errorf("save resolution: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertProperty inserts or replaces a property record
func (s *SQLStore) UpsertProperty(ctx context.Context, p Property) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO properties (
			property_id, team_id, street_part, unit_part, city, state, zipcode,
			full_address, address_canonical, building_canonical, token_set, type_norm
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (property_id) DO UPDATE SET
			team_id = excluded.team_id,
			street_part = excluded.street_part,
			unit_part = excluded.unit_part,
			city = excluded.city,
			state = excluded.state,
			zipcode = excluded.zipcode,
			full_address = excluded.full_address,
			address_canonical = excluded.address_canonical,
			building_canonical = excluded.building_canonical,
			token_set = excluded.token_set,
			type_norm = excluded.type_norm
	`),
		p.PropertyID, p.TeamID, p.StreetPart, p.UnitPart, p.City, p.State,
		p.Zipcode, p.FullAddress, p.AddressCanonical, p.BuildingCanonical,
		p.TokenSet, p.TypeNorm,
	)
	if err != nil {
		return fmt.Errorf("upsert property %s: %w", p.PropertyID, err)
	}
	return nil
}

// UpsertListing inserts or replaces a listing record
func (s *SQLStore) UpsertListing(ctx context.Context, l Listing) error {
	var propertyID interface{}
	if l.PropertyID != "" {
		propertyID = l.PropertyID
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO listing (
			listing_id, property_id, team_id, street_part, unit_part, city, state,
			zipcode, full_address, address_canonical, building_canonical, token_set
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (listing_id) DO UPDATE SET
			property_id = excluded.property_id,
			team_id = excluded.team_id,
			street_part = excluded.street_part,
			unit_part = excluded.unit_part,
			city = excluded.city,
			state = excluded.state,
			zipcode = excluded.zipcode,
			full_address = excluded.full_address,
			address_canonical = excluded.address_canonical,
			building_canonical = excluded.building_canonical,
			token_set = excluded.token_set
	`),
		l.ListingID, propertyID, l.TeamID, l.StreetPart, l.UnitPart, l.City,
		l.State, l.Zipcode, l.FullAddress, l.AddressCanonical,
		l.BuildingCanonical, l.TokenSet,
	)
	if err != nil {
		return fmt.Errorf("upsert listing %s: %w", l.ListingID, err)
	}
	return nil
}

// GetStats returns row counts for the stats endpoint
func (s *SQLStore) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats

	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM properties`, &stats.Properties},
		{`SELECT COUNT(*) FROM listing`, &stats.Listings},
		{`SELECT COUNT(*) FROM listing WHERE property_id IS NOT NULL AND property_id != ''`, &stats.ResolvedListings},
		{`SELECT COUNT(DISTINCT team_id) FROM properties`, &stats.Teams},
	}

	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("store stats: %w", err)
		}
	}
	return stats, nil
}

// hardErr marks a read failure as ErrUnavailable so callers distinguish a
// broken store from a miss
func hardErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, err))
}

// rebind rewrites ? placeholders to $n for postgres
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
