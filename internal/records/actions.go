package records

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dtnitsch/sitebrief/internal/common"
	"github.com/dtnitsch/sitebrief/pkg/store"
	"github.com/urfave/cli/v2"
)

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(c *cli.Context, logger *slog.Logger) *store.Store {
	db, err := store.Open(c.String("db"))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	return db
}

// ListAction prints the owner's saved records, newest first.
func ListAction(c *cli.Context) error {
	logger := newLogger(c)
	db := openStore(c, logger)
	defer db.Close()

	records, err := db.ListRecords(c.String("owner"), c.Int("limit"))
	if err != nil {
		logger.Error("failed to list records", "error", err)
		os.Exit(2)
	}
	return printRecords(c, records)
}

// SearchAction prints the owner's records whose URL or title matches --query.
func SearchAction(c *cli.Context) error {
	logger := newLogger(c)
	db := openStore(c, logger)
	defer db.Close()

	records, err := db.SearchRecords(c.String("owner"), c.String("query"), c.Int("limit"))
	if err != nil {
		logger.Error("failed to search records", "error", err)
		os.Exit(2)
	}
	return printRecords(c, records)
}

func printRecords(c *cli.Context, records []store.Record) error {
	if records == nil {
		records = []store.Record{}
	}
	outputData, err := common.MarshalOutput(records, c.String("format"))
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(outputData))
	return nil
}

// ShowAction prints one record by id.
func ShowAction(c *cli.Context) error {
	logger := newLogger(c)
	db := openStore(c, logger)
	defer db.Close()

	rec, err := db.GetRecord(c.String("owner"), c.Int64("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("record %d not found", c.Int64("id"))
	}
	if err != nil {
		logger.Error("failed to get record", "error", err)
		os.Exit(2)
	}

	outputData, err := common.MarshalOutput(rec, c.String("format"))
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(outputData))
	return nil
}

// DeleteAction removes one record and its snapshots.
func DeleteAction(c *cli.Context) error {
	logger := newLogger(c)
	db := openStore(c, logger)
	defer db.Close()

	id := c.Int64("id")
	err := db.DeleteRecord(c.String("owner"), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("record %d not found", id)
	}
	if err != nil {
		logger.Error("failed to delete record", "error", err)
		os.Exit(2)
	}

	logger.Info("deleted record", "record_id", id)
	return nil
}
