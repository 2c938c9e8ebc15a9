// Command dsorm initializes and inspects embedded SQLite databases
// described by declarative schema files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dsorm"
	"dsorm/internal/schemafile"
)

var (
	dbPath     string
	schemaPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dsorm",
	Short: "Declarative schema tooling for embedded SQLite databases",
	Long: `dsorm reads a YAML schema document describing tables, columns,
constraints, pragmas, and seed rows, and initializes or inspects the
corresponding SQLite database file.`,
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema described by a schema file",
	RunE:  runInit,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables present in the database file",
	RunE:  runTables,
}

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a query and print rows as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides the schema file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	initCmd.Flags().StringVar(&schemaPath, "schema", "schema.yaml", "Schema file path")
	rootCmd.AddCommand(initCmd, tablesCmd, queryCmd)
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func runInit(cmd *cobra.Command, args []string) error {
	log := newLogger()

	file, err := schemafile.Load(schemaPath)
	if err != nil {
		return err
	}
	tables, pragmas, err := file.Build()
	if err != nil {
		return err
	}

	path := file.Database
	if dbPath != "" {
		path = dbPath
	}

	opts := []dsorm.Option{dsorm.WithLogger(log)}
	for _, p := range pragmas {
		opts = append(opts, dsorm.WithPragma(p.Name, p.Value))
	}
	for _, t := range tables {
		opts = append(opts, dsorm.WithTable(t))
	}

	db, err := dsorm.Open(path, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Init(context.Background()); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"db": path, "tables": len(tables)}).Info("schema initialized")
	return nil
}

func runTables(cmd *cobra.Command, args []string) error {
	db, err := openExisting()
	if err != nil {
		return err
	}
	defer db.Close()

	stmt := dsorm.Raw(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	rows, err := db.Query(context.Background(), stmt)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Println(row["name"])
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	db, err := openExisting()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(context.Background(), dsorm.Raw(args[0]))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func openExisting() (*dsorm.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("--db is required")
	}
	return dsorm.Open(dbPath, dsorm.WithLogger(newLogger()))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
