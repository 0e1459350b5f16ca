package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/tagdex/api"
	"github.com/gcbaptista/tagdex/config"
	"github.com/gcbaptista/tagdex/index"
	"github.com/gcbaptista/tagdex/internal/engine"
	"github.com/gcbaptista/tagdex/internal/jobs"
	"github.com/gcbaptista/tagdex/services"
)

func main() {
	var (
		help        = flag.Bool("help", false, "Show help message")
		version     = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to a YAML config file")
		dataFile    = flag.String("data-file", "", "Delimited data file to ingest")
		statusFile  = flag.String("status-file", "", "File holding the last processed offset")
		checkpoint  = flag.String("checkpoint-dir", "", "Directory for index checkpoint files")
		delimiter   = flag.String("delimiter", "", "Single-byte field delimiter")
		listenAddr  = flag.String("listen", "", "HTTP listen address")
		interactive = flag.Bool("interactive", false, "Run the interactive command loop instead of the HTTP server")
	)

	flag.Parse()

	if *help {
		fmt.Printf("Tagdex - A tag-based document index with bitmap set-algebra queries\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s --data-file data.csv                 # Serve HTTP on default :8080\n", os.Args[0])
		fmt.Printf("  %s --data-file data.csv --interactive   # Interactive query loop\n", os.Args[0])
		return
	}

	if *version {
		fmt.Printf("Tagdex v1.0.0\n")
		return
	}

	cfg := loadConfig(*configPath)
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}
	if *statusFile != "" {
		cfg.StatusFile = *statusFile
	}
	if *checkpoint != "" {
		cfg.CheckpointDir = *checkpoint
	}
	if *delimiter != "" {
		cfg.Delimiter = *delimiter
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Using data file: %s", cfg.DataFile)
	eng := engine.New(cfg.DataFile, cfg.StatusFile, cfg.DelimiterByte())

	// Restore the previous checkpoint if one exists, then pick up whatever
	// the data file gained since.
	if err := eng.Load(cfg.CheckpointDir); err != nil {
		log.Printf("No usable checkpoint in %s (%v). Building from the data file.", cfg.CheckpointDir, err)
	}
	if err := eng.LoadIncremental(cfg.OptimizeAfter); err != nil {
		log.Printf("Warning: incremental load failed: %v", err)
	}
	log.Printf("Index ready: %d documents, %d tags", eng.DocumentCount(), eng.TagCount())

	if *interactive {
		runInteractive(eng, cfg.CheckpointDir)
		return
	}

	jobManager := jobs.NewManager(cfg.MaxJobWorkers)
	jobManager.Start()
	defer jobManager.Stop()

	router := gin.Default()
	api.SetupRoutes(router, api.NewAPI(eng, jobManager, cfg.CheckpointDir, cfg.OptimizeAfter))

	log.Printf("Starting server on %s...", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfig(path string) config.Config {
	if path == "" {
		var cfg config.Config
		cfg.ApplyDefaults()
		cfg.OptimizeAfter = true
		return cfg
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// runInteractive drives the index from stdin:
//
//	tagsfor <doc_id>
//	query <tag>... <AND|OR|XOR|ANDNOT>
//	quit
//
// quit saves the checkpoint and exits 0.
func runInteractive(eng services.IndexManager, checkpointDir string) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println("\nEnter command ('tagsfor <doc_id>', 'query <tag>... <OPERATION>', or 'quit'):")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "tagsfor":
			if len(fields) != 2 {
				fmt.Println("Usage: tagsfor <doc_id>")
				continue
			}
			tags := eng.TagsFor(fields[1])
			if len(tags) == 0 {
				fmt.Printf("No tags found for document '%s'.\n", fields[1])
				continue
			}
			for _, tag := range tags {
				fmt.Println(tag)
			}

		case "query":
			if len(fields) < 3 {
				fmt.Println("Usage: query <tag1> [tag2...] <AND|OR|XOR|ANDNOT>")
				continue
			}
			op, err := index.ParseOperation(fields[len(fields)-1])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			docs := eng.Query(fields[1:len(fields)-1], op)
			if len(docs) == 0 {
				fmt.Println("No documents found matching the query.")
				continue
			}
			for _, doc := range docs {
				fmt.Println(doc)
			}

		default:
			fmt.Println("Available commands: 'tagsfor <doc_id>', 'query <tags...> <OPERATION>', 'quit'")
		}
	}

	if err := eng.Save(checkpointDir); err != nil {
		log.Printf("Warning: failed to save checkpoint on exit: %v", err)
	}
}
