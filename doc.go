// Package dsorm is a small declarative layer over an embedded SQLite
// database. Tables and columns are described as plain Go values, and
// each operation on a table produces a single parameterized Statement
// that can be executed through a managed DB handle.
//
// # Schema Declaration
//
// A Table is an ordered set of Columns plus optional foreign keys,
// indexes, and seed rows. Declarations are validated once, when the
// table is constructed, and are read-only afterwards:
//
//	person, err := dsorm.NewTable("person", []*dsorm.Column{
//		{Name: "id", Type: dsorm.Integer, PrimaryKey: true},
//		{Name: "first_name", Type: dsorm.Text},
//		{Name: "last_name", Type: dsorm.Text},
//	})
//
// # Statements
//
// Insert, Select, Update, and Delete build single-use Statement values
// pairing SQL text with bound arguments. Values are always bound as
// parameters, never interpolated into the SQL text. Where clauses are
// AND-joined condition lists with Or groups for alternation:
//
//	stmt, err := person.Select(dsorm.Where{
//		dsorm.Eq("last_name", "Doe"),
//		dsorm.Like("first_name", "J%"),
//	})
//
// # Execution
//
// Open returns an explicit DB handle that owns the connection, the
// table registry, pragmas, and ordered setup hooks. Init applies
// pragmas, creates the registered schema, and inserts seed rows. Query
// returns rows as column-name-to-value mappings with declared column
// codecs applied.
//
// The package does not provide query planning, connection pooling,
// migrations, joins, or multi-statement transactions; the underlying
// database driver's behavior applies for anything beyond a single
// statement.
package dsorm
