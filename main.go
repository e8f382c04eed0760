package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/sitebrief/internal/analyze"
	"github.com/dtnitsch/sitebrief/internal/records"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sitebrief",
		Usage: "Scrape a web page and distill it into a structured analysis with an LLM",
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Scrape one URL and produce a mode-specific analysis",
				Action: analyze.AnalyzeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "URL of the page to analyze",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Analysis mode: article, product, policy, competitive",
						Value: "article",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Completion provider: chat or generate (default: " + analyze.EnvLLMProvider + " or chat)",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: json or yaml",
						Value: "json",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Persist the result as a record",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Owner id records are scoped to",
						Value: "local",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the SQLite database (default: next to the binary)",
					},
					&cli.BoolFlag{
						Name:  "local",
						Usage: "Force the local scraper even when a scraping API key is set",
					},
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Directory for the scrape cache",
						Value: ".sitebrief-cache",
					},
					&cli.StringFlag{
						Name:  "max-age",
						Usage: "Maximum age of cached scrapes (e.g. 24h, 30m)",
						Value: "24h",
					},
					&cli.BoolFlag{
						Name:  "force-fetch",
						Usage: "Bypass the scrape cache",
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Maximum completion requests per second",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Only log errors",
					},
				},
			},
			{
				Name:  "records",
				Usage: "Manage saved analysis records",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List saved records, newest first",
						Action: records.ListAction,
						Flags: append(recordFlags(),
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Maximum records to return",
								Value: 50,
							},
						),
					},
					{
						Name:   "search",
						Usage:  "Search saved records by URL or title",
						Action: records.SearchAction,
						Flags: append(recordFlags(),
							&cli.StringFlag{
								Name:     "query",
								Usage:    "Substring match on URL and title",
								Required: true,
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Maximum records to return",
								Value: 50,
							},
						),
					},
					{
						Name:   "show",
						Usage:  "Show one record by id",
						Action: records.ShowAction,
						Flags: append(recordFlags(),
							&cli.Int64Flag{
								Name:     "id",
								Usage:    "Record id",
								Required: true,
							},
						),
					},
					{
						Name:   "delete",
						Usage:  "Delete one record by id",
						Action: records.DeleteAction,
						Flags: append(recordFlags(),
							&cli.Int64Flag{
								Name:     "id",
								Usage:    "Record id",
								Required: true,
							},
						),
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// recordFlags are the flags shared by every records subcommand.
func recordFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "owner",
			Usage: "Owner id records are scoped to",
			Value: "local",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Path to the SQLite database (default: next to the binary)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: json or yaml",
			Value: "json",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Only log errors",
		},
	}
}
