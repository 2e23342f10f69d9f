package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/mcallison/chartline/internal/config"
	"github.com/mcallison/chartline/internal/database"
	"github.com/mcallison/chartline/internal/importer"
	"github.com/mcallison/chartline/internal/lexicon"
	"github.com/mcallison/chartline/internal/narrative"
	"github.com/mcallison/chartline/internal/note"
	"github.com/mcallison/chartline/internal/pipeline"
	"github.com/mcallison/chartline/internal/score"
	"github.com/mcallison/chartline/internal/server"
	"github.com/mcallison/chartline/internal/timeline"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "chartline",
	Short:   "Clinical note timelines and evidence-linked narratives",
	Long:    "Chartline imports clinical note exports, screens and deduplicates them, reconstructs admission episodes, and synthesizes narrative summaries whose every clause links back to the entries behind it.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(narrativeCmd)
	rootCmd.AddCommand(lexiconCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("chartline", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/chartline/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set the data directory or point at a custom lexicon.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Entries:")
		fmt.Printf("  Total: %d\n", stats.TotalEntries)
		fmt.Printf("  Dated: %d\n", stats.DatedEntries)
		fmt.Printf("  Imports: %d\n", stats.Batches)
		fmt.Println("\nOutput:")
		fmt.Printf("  Narratives: %d\n", stats.Narratives)
		fmt.Printf("  References: %d\n", stats.References)
		return nil
	},
}

// --- import command ---

var importLabel string

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSON or HTML note export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		lex, err := loadLexicon()
		if err != nil {
			return err
		}

		path := args[0]
		records, err := importer.Load(path)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d records from %s\n", len(records), path)

		result := pipeline.New(lex).Process(records)
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		label := importLabel
		if label == "" {
			label = filepath.Base(path)
		}
		batchID, err := db.InsertBatch(label, &path, len(records), len(result.Entries))
		if err != nil {
			return err
		}
		if err := db.InsertEntries(batchID, result.Entries); err != nil {
			return err
		}

		fmt.Printf("\nImported batch %d: %d entries stored.\n", batchID, len(result.Entries))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importLabel, "label", "l", "", "Label for this import batch")
}

// --- timeline command ---

var admissionsPath string

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Reconstruct admission and community episodes from stored entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		lex, err := loadLexicon()
		if err != nil {
			return err
		}

		entries, err := storedNotes(db)
		if err != nil {
			return err
		}

		builder := timeline.New(lex, cfg.Episodes.GapDays)

		var episodes []note.Episode
		if admissionsPath != "" {
			records, err := loadAdmissionRecords(admissionsPath)
			if err != nil {
				return err
			}
			episodes, err = builder.BuildWithRecords(entries, records)
			if err != nil {
				return err
			}
		} else {
			episodes, err = builder.Build(entries)
			if err != nil {
				return err
			}
		}

		if len(episodes) == 0 {
			fmt.Println("No episodes found.")
			return nil
		}

		fmt.Printf("Episodes (%d):\n", len(episodes))
		for _, ep := range episodes {
			fmt.Printf("  %-10s %s — %s\n", ep.Type,
				ep.Start.Format("2006-01-02"), ep.End.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	timelineCmd.Flags().StringVar(&admissionsPath, "admissions", "", "JSON file of administrative admission records to reconcile against")
}

// loadAdmissionRecords reads administrative admission spans from a JSON
// file: an array of {"start": ..., "end": ...} objects with loosely
// formatted dates.
func loadAdmissionRecords(path string) ([]timeline.AdmissionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	records := make([]timeline.AdmissionRecord, 0, len(raw))
	for i, r := range raw {
		start, err := dateparse.ParseAny(r.Start)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad start date %q", i, r.Start)
		}
		end, err := dateparse.ParseAny(r.End)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad end date %q", i, r.End)
		}
		records = append(records, timeline.AdmissionRecord{Start: start, End: end})
	}
	return records, nil
}

// --- narrative command ---

var narrativePeriod string

var narrativeCmd = &cobra.Command{
	Use:   "narrative",
	Short: "Generate an evidence-linked narrative from stored entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		lex, err := loadLexicon()
		if err != nil {
			return err
		}

		period, err := narrative.ParsePeriod(narrativePeriod)
		if err != nil {
			return err
		}

		entries, err := storedNotes(db)
		if err != nil {
			return err
		}

		scorer, err := score.New(lex)
		if err != nil {
			return err
		}
		builder := timeline.New(lex, cfg.Episodes.GapDays)
		synth := narrative.New(lex, scorer, builder)

		result, err := synth.Generate(entries, period)
		if err != nil {
			return err
		}

		id, err := db.InsertNarrative(string(period), result, len(entries))
		if err != nil {
			return err
		}

		fmt.Println(result.PlainText)
		fmt.Printf("\nSaved narrative %d with %d references. Run 'chartline serve' to browse the evidence.\n",
			id, result.Refs.Len())
		return nil
	},
}

func init() {
	narrativeCmd.Flags().StringVarP(&narrativePeriod, "period", "p", "all", "Period to summarize: all, 1_year, 6_months, last_admission")
}

// --- lexicon command ---

var lexiconCmd = &cobra.Command{
	Use:   "lexicon [file]",
	Short: "Show the active lexicon, or validate a lexicon file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			lex *lexicon.Lexicon
			err error
		)
		if len(args) == 1 {
			lex, err = lexicon.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Lexicon OK: %s\n\n", args[0])
		} else {
			lex, err = loadLexicon()
			if err != nil {
				return err
			}
		}

		fmt.Println("Categories:")
		for _, cat := range lex.Categories {
			terms := make([]string, 0, len(cat.Terms))
			for _, t := range cat.Terms {
				terms = append(terms, fmt.Sprintf("%s(%d)", t.Term, t.Weight))
			}
			fmt.Printf("  %-16s %s\n", cat.Name, strings.Join(terms, ", "))
		}
		fmt.Printf("\nNegation rules: %d\n", len(lex.NegationRules))
		fmt.Printf("Report types: %d\n", len(lex.ReportTypes))
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (defaults to config)")
}

// --- helpers ---

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "chartline.db")
	return database.Open(dbPath)
}

func loadLexicon() (*lexicon.Lexicon, error) {
	if cfg.Lexicon.Path != "" {
		return lexicon.Load(cfg.Lexicon.Path)
	}
	return lexicon.Default()
}

func storedNotes(db *database.DB) ([]note.Entry, error) {
	stored, err := db.GetAllEntries()
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("no entries stored; run 'chartline import' first")
	}
	entries := make([]note.Entry, 0, len(stored))
	for _, s := range stored {
		entries = append(entries, s.AsNote())
	}
	return entries, nil
}
