package store

// Schema statements are portable across postgres and sqlite; both tables
// follow the shape of the upstream data dump with derived canonical columns
// maintained by the importer.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		property_id        TEXT PRIMARY KEY,
		team_id            TEXT NOT NULL,
		street_part        TEXT,
		unit_part          TEXT,
		city               TEXT,
		state              TEXT,
		zipcode            TEXT,
		full_address       TEXT,
		address_canonical  TEXT,
		building_canonical TEXT,
		token_set          TEXT,
		type_norm          TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS listing (
		listing_id         TEXT PRIMARY KEY,
		property_id        TEXT,
		team_id            TEXT NOT NULL,
		street_part        TEXT,
		unit_part          TEXT,
		city               TEXT,
		state              TEXT,
		zipcode            TEXT,
		full_address       TEXT,
		address_canonical  TEXT,
		building_canonical TEXT,
		token_set          TEXT,
		confidence         REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_team ON properties (team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_team_canonical ON properties (team_id, address_canonical)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_team_building ON properties (team_id, building_canonical)`,
	`CREATE INDEX IF NOT EXISTS idx_listing_team ON listing (team_id)`,
}
